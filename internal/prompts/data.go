package prompts

// Job is the job as the templates see it.
type Job struct {
	Title         string
	Description   string
	RequiredYears int
	Skills        []string
}

// Candidate is the candidate as the templates see it.
type Candidate struct {
	Name        string
	Years       int
	SkillsJSON  string
	Experiences string
}

type SkillCoverage struct {
	Skill     string
	Asked     int
	TargetMin int
	TargetMax int
}

type OpeningData struct {
	Job       Job
	Candidate Candidate
}

type NextQuestionData struct {
	Job           Job
	Candidate     Candidate
	Introduction  string
	AskedJSON     string
	Asked         int
	Coverage      []SkillCoverage
	ExperienceGap int
	MinQuestions  int
	MaxQuestions  int
}

type ScoreAnswerData struct {
	Job          Job
	Candidate    Candidate
	Question     string
	Answer       string
	TotalScore   float64
	Asked        int
	MinQuestions int
	MaxQuestions int
}

// InterviewData feeds both the overall score and the skill rating steps.
type InterviewData struct {
	Job           Job
	Candidate     Candidate
	QuestionsJSON string
}

type SummaryData struct {
	Sessions int
	RowsJSON string
}
