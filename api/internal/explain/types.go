package explain

// Option — один вариант ответа вопроса.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Evidence — выдержка из источника, прикреплённая к вопросу.
type Evidence struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Quote string `json:"quote"`
}

// Request — вход пайплайна: вопрос с вариантами и ключом. Не меняется
// на протяжении одного прогона.
type Request struct {
	QuestionTitle  string     `json:"question_title"`
	Options        []Option   `json:"options"`         // 2+
	CorrectAnswers []string   `json:"correct_answers"` // id варианта или его текст, ≥1
	Category       string     `json:"category,omitempty"`
	DifficultyHint string     `json:"difficulty_hint,omitempty"`
	SyllabusPath   string     `json:"syllabus_path,omitempty"`
	Evidence       []Evidence `json:"evidence,omitempty"` // 0–5
}

type Verdict string

const (
	VerdictCorrect Verdict = "CORRECT"
	VerdictWrong   Verdict = "WRONG"
)

type AidType string

const (
	AidAcronym     AidType = "ACRONYM"
	AidRhyme       AidType = "RHYME"
	AidStory       AidType = "STORY"
	AidImage       AidType = "IMAGE"
	AidAssociation AidType = "ASSOCIATION"
	AidOther       AidType = "OTHER"
)

var aidTypes = []AidType{AidAcronym, AidRhyme, AidStory, AidImage, AidAssociation, AidOther}

type OptionAnalysis struct {
	Option  string  `json:"option"`
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

type MemoryAid struct {
	Type AidType `json:"type"`
	Text string  `json:"text"`
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Quote string `json:"quote"`
}

// Explanation — канонический результат пайплайна. Инварианты
// (проверяются Validate и гарантируются Synthesize):
//   - Summary 20–300 символов;
//   - Answer непустой, каждый элемент непуст после trim;
//   - Analysis ≥2 записей, verdict из enum, reason ≥10 символов;
//   - KeyPoints 1–5;
//   - MemoryAids 0–3, text 5–120;
//   - Citations 0–5, url абсолютный http/https, quote ≥10;
//   - Difficulty 1–5.
type Explanation struct {
	Summary       string           `json:"summary"`
	Answer        []string         `json:"answer"`
	Analysis      []OptionAnalysis `json:"option_analysis"`
	KeyPoints     []string         `json:"key_points"`
	MemoryAids    []MemoryAid      `json:"memory_aids,omitempty"`
	Citations     []Citation       `json:"citations,omitempty"`
	Difficulty    int              `json:"difficulty"`
	Insufficiency bool             `json:"insufficiency"`
}

// Record — слабо типизированный промежуточный результат разбора.
// Raw-поля несут то, что реально прислала модель (любой формы);
// типизированные поля заполняет Normalize. Никогда не сохраняется.
type Record struct {
	RawSummary      any
	RawAnswer       any
	RawAnalysis     any
	RawKeyPoints    any
	RawMemoryAids   any
	RawCitations    any
	RawDifficulty   any
	RawInsufficient any

	// FreeText — свободный текст, который удалось выудить из ответа
	// помимо структурных полей; сырьё для Synthesize.
	FreeText string

	// Заполняются Normalize.
	Summary      string
	Answer       []string
	Analysis     []OptionAnalysis
	KeyPoints    []string
	MemoryAids   []MemoryAid
	Citations    []Citation
	Difficulty   *float64
	Insufficient bool
}
