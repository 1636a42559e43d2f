package models

import "time"

// UserQuestionProgress records a user's attempt state on one question,
// unique per (user, question).
type UserQuestionProgress struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	QuestionID  string    `db:"question_id" json:"question_id"`
	TimeSpent   int       `db:"time_spent" json:"time_spent"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	ToRevise    bool      `db:"to_revise" json:"to_revise"`
	Remarks     string    `db:"remarks" json:"remarks"`
	AttemptedAt time.Time `db:"attempted_at" json:"attempted_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UserTopicProgress records a user's study state on one topic, unique per
// (user, topic).
type UserTopicProgress struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	TopicID     string    `db:"topic_id" json:"topic_id"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	ToRevise    bool      `db:"to_revise" json:"to_revise"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// QuestionProgressUpsertRequest records an attempt on one question.
type QuestionProgressUpsertRequest struct {
	QuestionID  string `json:"questionId" validate:"required"`
	TimeSpent   int    `json:"timeSpent" validate:"min=0"`
	IsCompleted bool   `json:"isCompleted"`
	ToRevise    bool   `json:"toRevise"`
	Remarks     string `json:"remarks"`
}

// BulkQuestionProgressCheckRequest asks for progress on a set of questions.
type BulkQuestionProgressCheckRequest struct {
	QuestionIDs []string `json:"questionIds" validate:"required,min=1"`
}

// TopicProgressUpdateRequest sets the flags of one topic for the caller.
type TopicProgressUpdateRequest struct {
	TopicID     string `json:"topicId" validate:"required"`
	IsCompleted bool   `json:"isCompleted"`
	ToRevise    bool   `json:"toRevise"`
}

// BulkTopicProgressRequest updates several topics in one call.
type BulkTopicProgressRequest struct {
	Updates []TopicProgressUpdateRequest `json:"updates" validate:"required,min=1,dive"`
}

// BulkTopicCheckRequest asks for the flags of a set of topics.
type BulkTopicCheckRequest struct {
	TopicIDs []string `json:"topicIds" validate:"required,min=1"`
}

// TopicCheckResult reports the stored flags for one topic, defaulting to
// false when no record exists.
type TopicCheckResult struct {
	TopicID     string `json:"topicId"`
	Exists      bool   `json:"exists"`
	IsCompleted bool   `json:"isCompleted"`
	ToRevise    bool   `json:"toRevise"`
}

// BulkTopicProgressResult reports the outcome of one bulk update entry.
type BulkTopicProgressResult struct {
	TopicID string `json:"topicId"`
	Error   string `json:"error,omitempty"`
}

// TopicProgressSummary aggregates topic flags for one user.
type TopicProgressSummary struct {
	TotalTopics          int     `json:"totalTopics"`
	Completed            int     `json:"completed"`
	ToRevise             int     `json:"toRevise"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// CategoryProgressStats is the per-category slice of a question summary.
type CategoryProgressStats struct {
	CategoryID           string  `db:"category_id" json:"categoryId"`
	CategoryName         string  `db:"category_name" json:"categoryName"`
	Total                int     `db:"total" json:"total"`
	Completed            int     `db:"completed" json:"completed"`
	ToRevise             int     `db:"to_revise" json:"toRevise"`
	CompletionPercentage float64 `db:"-" json:"completionPercentage"`
}

// QuestionProgressSummary aggregates question attempts for one user.
type QuestionProgressSummary struct {
	TotalQuestions       int                     `json:"totalQuestions"`
	Completed            int                     `json:"completed"`
	ToRevise             int                     `json:"toRevise"`
	CompletionPercentage float64                 `json:"completionPercentage"`
	Categories           []CategoryProgressStats `json:"categories"`
}
