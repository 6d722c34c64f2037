// Package prompt builds the instructions sent to the generative backend.
// Every function is a pure function of its arguments.
package prompt

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

const personaHeader = `
Eres **Health-AI**, un acompañante psicológico profesional, empático y humano.
Tu estilo es cálido, respetuoso y cercano, pero siempre profesional. 
`

const styleRules = `
=========================
ESTILO PROFESIONAL
=========================
- Hablas como un psicólogo clínico con tacto humano.
- Eres empático pero no uses expresiones románticas ni familiares (no usar: cariño, corazón, mi amor, etc.).
- Tono calmado, seguro y claro.
- Validas emociones sin exagerar.
- No suenas como un amigo íntimo, sino como un profesional que acompaña y escucha.
- No das diagnósticos clínicos.
- No usas tecnicismos, pero sí explicaciones claras.
- Ofreces pasos pequeños, realistas y orientados al bienestar.
`

const formatRules = `
=========================
REGLAS DE FORMATO
=========================
- Usa negritas con formato markdown normal: **así**.
- No muestres asteriscos sueltos.
- No uses viñetas con un solo *, usa guiones: "- algo".
- Las listas deben usar:
  - "- ejemplo"
- No uses formatos incorrectos con asteriscos.
`

const simplifiedPersona = `
Eres **Health-AI**, un acompañante psicológico profesional, humano y empático.
No tienes acceso a la biblioteca externa, pero mantienes un estilo clínico cálido y respetuoso.

REGLAS:
- Tono profesional, calmado y cercano.
- No uses expresiones románticas, afectivas o familiares (no decir: cariño, mi cielo, corazón).
- Valida emociones de forma profesional, sin exageración.
- Usa lenguaje claro, humano y sin tecnicismos.
- No diagnostiques, no prescribas tratamientos.
- Usa markdown normal para negritas: **así**.
- Listas solo con guiones (-).
`

const (
	// NoKnowledgeMarker replaces the knowledge section when retrieval found nothing.
	NoKnowledgeMarker = "No se encontró contenido relevante. Usa únicamente tus habilidades profesionales y empáticas."
	// NewUserMarker replaces the profile section when the user wrote no bio.
	NewUserMarker = "Usuario nuevo."
)

// System builds the conversational system instruction from retrieved
// knowledge and the user's profile note.
func System(knowledge, bio string) string {
	if strings.TrimSpace(knowledge) == "" {
		knowledge = NoKnowledgeMarker
	}

	var b strings.Builder
	b.WriteString(personaHeader)
	b.WriteString(styleRules)
	b.WriteString(formatRules)
	b.WriteString("\n=========================\nCONOCIMIENTO RELEVANTE\n=========================\n")
	b.WriteString(knowledge)
	b.WriteString("\n\n=========================\nPERFIL DEL USUARIO\n=========================\n")
	b.WriteString(profileOrNewUser(bio))
	b.WriteString("\n")
	return b.String()
}

// Simplified is the persona-only instruction used when the
// retrieval-augmented attempt cannot be completed.
func Simplified(bio string) string {
	return simplifiedPersona + "\nPERFIL DEL USUARIO:\n" + profileOrNewUser(bio) + "\n"
}

var categoryLabels = map[domain.Category]string{
	domain.CategoryDepression: "PHQ-9 (Depresión)",
	domain.CategoryAnxiety:    "GAD-7 (Ansiedad)",
	domain.CategoryStress:     "Estrés Percibido",
}

// ClinicalReport asks for a short, non-diagnostic clinical impression of
// the given scores.
func ClinicalReport(report domain.ScoreReport, scales map[domain.Category]domain.CategoryScale) string {
	var results strings.Builder
	results.WriteString("RESULTADOS TEST MULTIDIMENSIONAL:\n")
	for _, c := range domain.Categories {
		fmt.Fprintf(&results, "- %s: %d/%d\n", categoryLabels[c], report.Scores[c], scales[c].MaxScore)
	}

	return `
Actúa como un Psicólogo Clínico experto.
Analiza estos resultados de una evaluación de salud mental:

` + results.String() + `
TU TAREA:
Escribe un párrafo de "Impresión Clínica" (máximo 80 palabras) dirigido al paciente ("Tú").
- Sé empático pero directo.
- No diagnostiques ("tienes depresión"), usa "tus resultados sugieren...".
- Menciona qué área (Ansiedad, Estrés, Depresión) requiere más atención.
- Termina con un mensaje de esperanza.
`
}

// JournalAnalysis asks for the main emotion and a short seed reflection,
// in the line format parsed by the journal service.
func JournalAnalysis(entry string) string {
	return fmt.Sprintf(`
Actúa como un mentor sabio y compasivo.
El usuario ha escrito esto en su diario personal:
"%s"

TU TAREA:
1. Identifica la emoción principal (ej. Frustración, Alegría, Nostalgia).
2. Escribe una "Reflexión Semilla": Una frase corta (max 20 palabras), inspiradora o una pregunta poderosa relacionada con lo que escribió, para ayudarle a sanar o celebrar.

FORMATO DE RESPUESTA:
Emoción: [Emoción]
Reflexión: [Frase]
`, entry)
}

func profileOrNewUser(bio string) string {
	if strings.TrimSpace(bio) == "" {
		return NewUserMarker
	}
	return bio
}
