package core

// Fixed category vocabularies per kind.
var categories = map[Kind][]string{
	Income:     {"Salario", "Freelance", "Negocio", "Otros"},
	Expense:    {"Alimentos", "Transporte", "Servicios", "Entretenimiento", "Salud", "Educación", "Otros"},
	Saving:     {"Fondo de emergencia", "Metas", "Otros"},
	Investment: {"Acciones", "Fondos", "Cripto", "Otros"},
}

// Description suggestions offered by the forms, keyed by category.
var suggestions = map[string][]string{
	"Salario":             {"Quincena", "Prima", "Bonificación"},
	"Freelance":           {"Proyecto", "Consultoría"},
	"Negocio":             {"Ventas", "Servicios prestados"},
	"Alimentos":           {"Mercado", "Restaurante", "Domicilio"},
	"Transporte":          {"Gasolina", "Bus", "Taxi", "Parqueadero"},
	"Servicios":           {"Luz", "Agua", "Gas", "Internet", "Celular"},
	"Entretenimiento":     {"Cine", "Streaming", "Salidas"},
	"Salud":               {"Medicamentos", "Consulta", "Seguro médico"},
	"Educación":           {"Matrícula", "Libros", "Cursos"},
	"Fondo de emergencia": {"Aporte mensual"},
	"Metas":               {"Viaje", "Vivienda", "Vehículo"},
	"Acciones":            {"Compra de acciones"},
	"Fondos":              {"Fondo de inversión", "Pensión voluntaria"},
	"Cripto":              {"Bitcoin", "Stablecoins"},
}

// Categories returns a copy of the vocabulary of k.
func Categories(k Kind) []string {
	return append([]string(nil), categories[k]...)
}

// IsCategory reports whether name belongs to the vocabulary of k.
func IsCategory(k Kind, name string) bool {
	for _, c := range categories[k] {
		if c == name {
			return true
		}
	}
	return false
}

// Suggestions returns description suggestions for a category, or nil.
func Suggestions(category string) []string {
	return append([]string(nil), suggestions[category]...)
}
