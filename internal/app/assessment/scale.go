package assessment

import "github.com/PabloGalante/healthai-agent/internal/domain"

// Option is one selectable answer for every questionnaire item.
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

var options = []Option{
	{Label: "Nunca", Value: 0},
	{Label: "Varios días", Value: 1},
	{Label: "Más de la mitad", Value: 2},
	{Label: "Casi todos los días", Value: 3},
}

// PHQ-9 (depression), GAD-7 (anxiety) and a perceived-stress block.
var items = []domain.QuestionnaireItem{
	{ID: 1, Text: "Poco interés o placer en hacer cosas", Category: domain.CategoryDepression},
	{ID: 2, Text: "Se ha sentido decaído/a, deprimido/a o sin esperanza", Category: domain.CategoryDepression},
	{ID: 3, Text: "Dificultad para dormirse o permanecer dormido/a, o ha dormido demasiado", Category: domain.CategoryDepression},
	{ID: 4, Text: "Se ha sentido cansado/a o con poca energía", Category: domain.CategoryDepression},
	{ID: 5, Text: "Sin apetito o ha comido en exceso", Category: domain.CategoryDepression},
	{ID: 6, Text: "Se ha sentido mal con usted mismo/a (o que es un fracaso o que ha decepcionado a su familia)", Category: domain.CategoryDepression},
	{ID: 7, Text: "Dificultad para concentrarse en cosas, tales como leer el periódico o ver televisión", Category: domain.CategoryDepression},
	{ID: 8, Text: "Se ha movido o hablado tan lento que los demás lo han notado (o lo contrario, muy inquieto)", Category: domain.CategoryDepression},
	{ID: 9, Text: "Pensamientos de que estaría mejor muerto/a o de lastimarse de alguna manera", Category: domain.CategoryDepression},

	{ID: 10, Text: "Se ha sentido nervioso/a, ansioso/a o con los nervios de punta", Category: domain.CategoryAnxiety},
	{ID: 11, Text: "No ha sido capaz de parar o controlar sus preocupaciones", Category: domain.CategoryAnxiety},
	{ID: 12, Text: "Se ha preocupado demasiado por motivos diferentes", Category: domain.CategoryAnxiety},
	{ID: 13, Text: "Ha tenido dificultad para relajarse", Category: domain.CategoryAnxiety},
	{ID: 14, Text: "Se ha sentido tan inquieto/a que no podía quedarse quieto/a", Category: domain.CategoryAnxiety},
	{ID: 15, Text: "Se ha molestado o irritado fácilmente", Category: domain.CategoryAnxiety},
	{ID: 16, Text: "Ha sentido miedo como si algo terrible fuera a pasar", Category: domain.CategoryAnxiety},

	{ID: 17, Text: "Se ha sentido molesto/a por algo que ocurrió inesperadamente", Category: domain.CategoryStress},
	{ID: 18, Text: "Ha sentido que las cosas importantes de su vida estaban fuera de su control", Category: domain.CategoryStress},
	{ID: 19, Text: "Se ha sentido nervioso/a o estresado/a", Category: domain.CategoryStress},
	{ID: 20, Text: "Ha sentido que no podía afrontar todas las cosas que tenía que hacer", Category: domain.CategoryStress},
	{ID: 21, Text: "Se ha enfadado porque las cosas que le han ocurrido estaban fuera de su control", Category: domain.CategoryStress},
	{ID: 22, Text: "Ha sentido que las dificultades se acumulaban tanto que no podía superarlas", Category: domain.CategoryStress},
}

// Items returns a copy of the questionnaire.
func Items() []domain.QuestionnaireItem {
	out := make([]domain.QuestionnaireItem, len(items))
	copy(out, items)
	return out
}

// Options returns the answer scale shared by every item.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Scales derives each category's maximum score from the given items.
func Scales(items []domain.QuestionnaireItem) map[domain.Category]domain.CategoryScale {
	out := make(map[domain.Category]domain.CategoryScale, len(domain.Categories))
	for _, c := range domain.Categories {
		out[c] = domain.CategoryScale{Category: c}
	}
	for _, it := range items {
		sc := out[it.Category]
		sc.Category = it.Category
		sc.MaxScore += domain.MaxItemValue
		out[it.Category] = sc
	}
	return out
}
