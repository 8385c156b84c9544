package audit

import (
	"testing"

	"github.com/mpensambles/entradasqr/internal/domain"
)

func TestInsertEntriesEmitsOnePerField(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Fields: []string{"nombre", "cantidad"},
		Values: map[string]string{"nombre": "María", "cantidad": "3"},
	}

	entries := InsertEntries("entradas", "abc", map[string]string{"funcion": "Gala"}, snap, "staff@example.com")

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Campo != "nombre" || entries[1].Campo != "cantidad" {
		t.Errorf("field order = %q, %q; want nombre, cantidad", entries[0].Campo, entries[1].Campo)
	}
	for _, e := range entries {
		if e.Operacion != domain.OperacionInsert {
			t.Errorf("operation = %q, want INSERT", e.Operacion)
		}
		if e.ValorAnterior != "" {
			t.Errorf("insert entry carries old value %q", e.ValorAnterior)
		}
		if e.EmailUsuario != "staff@example.com" {
			t.Errorf("email = %q", e.EmailUsuario)
		}
	}
}

func TestUpdateEntriesEmitsOnlyChangedFields(t *testing.T) {
	t.Parallel()

	oldSnap := Snapshot{
		Fields: []string{"nombre", "cantidad", "id_alumno"},
		Values: map[string]string{"nombre": "María", "cantidad": "3", "id_alumno": "7"},
	}
	newSnap := Snapshot{
		Fields: []string{"nombre", "cantidad", "id_alumno"},
		Values: map[string]string{"nombre": "María", "cantidad": "5", "id_alumno": "7"},
	}

	entries := UpdateEntries("entradas", "abc", nil, oldSnap, newSnap, "staff@example.com")

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Campo != "cantidad" || e.ValorAnterior != "3" || e.ValorNuevo != "5" {
		t.Errorf("entry = %+v, want cantidad 3 -> 5", e)
	}
	if e.Operacion != domain.OperacionUpdate {
		t.Errorf("operation = %q, want UPDATE", e.Operacion)
	}
}

func TestUpdateEntriesNoopLeavesNoTrace(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Fields: []string{"nombre"},
		Values: map[string]string{"nombre": "María"},
	}

	if entries := UpdateEntries("entradas", "abc", nil, snap, snap, "x"); len(entries) != 0 {
		t.Errorf("got %d entries for a no-op update, want 0", len(entries))
	}
}

func TestDeleteEntryIsRowLevel(t *testing.T) {
	t.Parallel()

	ctxo := map[string]string{"nombre_comprador": "María"}
	entries := DeleteEntry("entradas", "abc", ctxo, "staff@example.com")

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Operacion != domain.OperacionDelete || e.Campo != "" {
		t.Errorf("entry = %+v, want field-less DELETE", e)
	}
	if e.ContextoRegistro["nombre_comprador"] != "María" {
		t.Errorf("context lost: %+v", e.ContextoRegistro)
	}
}
