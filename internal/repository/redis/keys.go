package redis

import "fmt"

const ns = "entradasqr:v1"

func KeyEntrada(id string) string {
	return fmt.Sprintf("%s:entradas:id:%s", ns, id)
}

func KeyEntradasDelAnio(anio int) string {
	return fmt.Sprintf("%s:entradas:anio:%d", ns, anio)
}

// KeyEntradasPorFuncion addresses the working set of one function within a
// year. PrefixEntradasPorFuncion covers every function of the year, for
// prefix invalidation after a mutation whose function is not known.
func KeyEntradasPorFuncion(anio int, funcion string) string {
	return fmt.Sprintf("%s:entradas:anio:%d:funcion:%s", ns, anio, funcion)
}

func PrefixEntradasPorFuncion(anio int) string {
	return fmt.Sprintf("%s:entradas:anio:%d:funcion:", ns, anio)
}

func KeyAlumnosDelAnio(anio int) string {
	return fmt.Sprintf("%s:alumnos:anio:%d", ns, anio)
}

func KeyAlumnosPorGrupo(anio int, idGrupo string) string {
	return fmt.Sprintf("%s:alumnos:anio:%d:grupo:%s", ns, anio, idGrupo)
}

func PrefixAlumnos(anio int) string {
	return fmt.Sprintf("%s:alumnos:anio:%d", ns, anio)
}

func KeyGruposDelAnio(anio int) string {
	return fmt.Sprintf("%s:grupos:anio:%d", ns, anio)
}

func KeyFuncionesDelAnio(anio int) string {
	return fmt.Sprintf("%s:funciones:anio:%d", ns, anio)
}

func KeyEmailTemplate(key string) string {
	return fmt.Sprintf("%s:email_templates:%s", ns, key)
}

func ChannelEntradasChanged() string {
	return ns + ":entradas:changed"
}
