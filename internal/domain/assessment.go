package domain

// Category groups questionnaire items under one clinical scale.
type Category string

const (
	CategoryDepression Category = "DEPRESSION"
	CategoryAnxiety    Category = "ANXIETY"
	CategoryStress     Category = "STRESS"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryDepression, CategoryAnxiety, CategoryStress}

// Interpretation is the discrete label summarizing a ScoreReport.
type Interpretation string

const (
	InterpretationBalanced   Interpretation = "Balanced"
	InterpretationDepression Interpretation = "Depression-predominant"
	InterpretationAnxiety    Interpretation = "Anxiety-predominant"
	InterpretationStress     Interpretation = "High-stress"
	InterpretationHealthy    Interpretation = "Healthy"
)

// MaxItemValue is the highest value a single answer can take.
const MaxItemValue = 3

type QuestionnaireItem struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

type CategoryScale struct {
	Category Category `json:"category"`
	MaxScore int      `json:"max_score"`
}

// AnswerSet maps QuestionnaireItem.ID to a value in [0, MaxItemValue].
type AnswerSet map[int]int

type ScoreReport struct {
	Scores         map[Category]int `json:"scores"`
	TotalScore     int              `json:"total_score"`
	Interpretation Interpretation   `json:"interpretation"`
	CreatedAt      Timestamp        `json:"created_at"`
}

// AssessmentRecord is the persisted outcome of one completed questionnaire.
type AssessmentRecord struct {
	ID       AssessmentID `json:"id"`
	UserID   UserID       `json:"user_id"`
	Report   ScoreReport  `json:"report"`
	Analysis string       `json:"analysis"`
	Answers  AnswerSet    `json:"answers"`
}
