// Package audit builds the field-level change entries appended to the
// historial_cambios table alongside every mutation.
package audit

import "github.com/mpensambles/entradasqr/internal/domain"

// Snapshot is an ordered view of a row's auditable fields.
type Snapshot struct {
	Fields []string
	Values map[string]string
}

// InsertEntries emits one entry per field of the new row.
func InsertEntries(tabla, idRegistro string, contexto map[string]string, snap Snapshot, emailUsuario string) []domain.RegistroCambio {
	out := make([]domain.RegistroCambio, 0, len(snap.Fields))
	for _, campo := range snap.Fields {
		out = append(out, domain.RegistroCambio{
			Tabla:            tabla,
			IDRegistro:       idRegistro,
			ContextoRegistro: contexto,
			Operacion:        domain.OperacionInsert,
			Campo:            campo,
			ValorNuevo:       snap.Values[campo],
			EmailUsuario:     emailUsuario,
		})
	}
	return out
}

// UpdateEntries emits one entry per field whose value changed between the
// two snapshots, in the old snapshot's field order. Unchanged fields
// produce nothing, so a no-op update leaves no trace.
func UpdateEntries(tabla, idRegistro string, contexto map[string]string, oldSnap, newSnap Snapshot, emailUsuario string) []domain.RegistroCambio {
	var out []domain.RegistroCambio
	for _, campo := range oldSnap.Fields {
		oldVal := oldSnap.Values[campo]
		newVal := newSnap.Values[campo]
		if oldVal == newVal {
			continue
		}
		out = append(out, domain.RegistroCambio{
			Tabla:            tabla,
			IDRegistro:       idRegistro,
			ContextoRegistro: contexto,
			Operacion:        domain.OperacionUpdate,
			Campo:            campo,
			ValorAnterior:    oldVal,
			ValorNuevo:       newVal,
			EmailUsuario:     emailUsuario,
		})
	}
	return out
}

// DeleteEntry emits the single row-level entry recording a deletion; the
// context carries whatever identifies the row to a human reader.
func DeleteEntry(tabla, idRegistro string, contexto map[string]string, emailUsuario string) []domain.RegistroCambio {
	return []domain.RegistroCambio{{
		Tabla:            tabla,
		IDRegistro:       idRegistro,
		ContextoRegistro: contexto,
		Operacion:        domain.OperacionDelete,
		EmailUsuario:     emailUsuario,
	}}
}
