package model

type ContentType string

const (
	ContentDocument ContentType = "document"
	ContentVideo    ContentType = "video"
)

// swagger:model Course
type Course struct {
	UUIDBase
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	PassingScore int    `gorm:"not null;default:70" json:"passing_score"`
	CreatedBy    string `gorm:"type:varchar(36);index;not null" json:"created_by"`
	IsPublished  bool   `gorm:"not null;default:false" json:"is_published"`
}

func (Course) TableName() string {
	return "course"
}

// swagger:model ContentItem
type ContentItem struct {
	UUIDBase
	CourseID    string      `gorm:"type:varchar(36);index;not null" json:"course_id"`
	Type        ContentType `gorm:"size:20;not null" json:"type"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Position    int         `gorm:"not null" json:"position"`
	DurationSec int         `gorm:"not null;default:0" json:"duration_sec"`
	CreatedBy   string      `gorm:"type:varchar(36)" json:"created_by"`

	Document *DocumentAsset `gorm:"foreignKey:ContentID" json:"document,omitempty"`
	Media    *MediaAsset    `gorm:"foreignKey:ContentID" json:"media,omitempty"`
}

func (ContentItem) TableName() string {
	return "content_item"
}

// URI returns the asset location regardless of the item type.
func (i *ContentItem) URI() string {
	if i.Document != nil {
		return i.Document.URI
	}
	if i.Media != nil {
		return i.Media.URI
	}
	return ""
}

type DocumentAsset struct {
	UUIDBase
	ContentID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"content_id"`
	Source    string `gorm:"size:20;not null;default:'upload'" json:"source"`
	URI       string `gorm:"size:512;not null" json:"uri"`
}

func (DocumentAsset) TableName() string {
	return "document_asset"
}

type MediaAsset struct {
	UUIDBase
	ContentID    string `gorm:"type:varchar(36);uniqueIndex;not null" json:"content_id"`
	Source       string `gorm:"size:20;not null;default:'upload'" json:"source"`
	URI          string `gorm:"size:512;not null" json:"uri"`
	DurationSec  int    `gorm:"not null;default:0" json:"duration_sec"`
	ThumbnailURI string `gorm:"size:512" json:"thumbnail_uri,omitempty"`
}

func (MediaAsset) TableName() string {
	return "media_asset"
}

// CourseListItem is one row of the course listings.
type CourseListItem struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	PassingScore      int     `json:"passing_score"`
	CreatedBy         string  `json:"created_by"`
	IsPublished       bool    `json:"is_published"`
	OwnerUsername     string  `json:"owner_username"`
	ResourcesCount    int     `json:"resources_count"`
	EstimatedDuration string  `json:"estimated_duration"`
	RatingAvg         float64 `json:"rating_avg"`
	RatingsCount      int     `json:"ratings_count"`
}
