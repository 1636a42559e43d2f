package models

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	SubCategoryID   string
	SubCategoryName string
	CategoryID      string
	CategoryName    string
	SubjectName     string
	Year            int
	Tag             string
	IsActive        *bool
	Search          string
	SortBy          string
	SortOrder       string
	Page            int
	PageSize        int
}

// UserFilter narrows user listings for admin views.
type UserFilter struct {
	Search             string
	SubscriptionStatus string
	SortBy             string
	SortOrder          string
	Page               int
	PageSize           int
}

// TagFilter narrows tag listings.
type TagFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}
