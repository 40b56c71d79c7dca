package common

// Content is one scene's script text tagged with the entities mentioned in it.
// The Title is the comma-joined list of entities extracted from the scene and
// the Body is the scene script itself. Content is a plain comparable value so
// it can be used as a map key for deduplication.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"content"`
}

// Contents wraps the list of contents associated with one entity. It mirrors
// the JSON shape persisted in the entity table's content column.
type Contents struct {
	Contents []Content `json:"contents"`
}

// EntityRecord is one row of the entity table: a canonical entity name and
// every scene content it appears in.
type EntityRecord struct {
	Entity   string   `json:"entity"`
	Contents Contents `json:"contents"`
}

// RelationRecord is one extracted relation between two entities. Relations are
// directed; Source and Target carry surface forms as extracted and are
// normalized during graph construction.
type RelationRecord struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Relations wraps the relation list persisted per scene in the ner table.
type Relations struct {
	Relations []RelationRecord `json:"relations"`
}

// Storyboard is one subtitle-bearing frame of an episode. The picture itself
// lives in object storage; PictureKey holds its key.
type Storyboard struct {
	ID          int64  `json:"id"`
	Episode     int    `json:"episode"`
	FrameNumber int    `json:"frame_number"`
	Subtitle    string `json:"subtitle"`
	PictureKey  string `json:"picture_key"`
	Role        string `json:"role"`
	Scene       int    `json:"scene"`
}

// Scene is a contiguous block of dialogue sharing one scene identifier. The
// script is the "role:subtitle" transcript sent to extraction and embedding.
type Scene struct {
	ID     int    `json:"id"`
	Script string `json:"script"`
}

// Finding is one insight inside a community report.
type Finding struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
}

// CommunityReport is an LLM-generated summary of one graph community. Reports
// are produced by the ingestion pipeline and read-only afterwards.
type CommunityReport struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Rating            float64   `json:"rating"`
	RatingExplanation string    `json:"rating_explanation"`
	Findings          []Finding `json:"findings"`
}
