package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/repository"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
)

type importCategoryResolver interface {
	FindByNames(ctx context.Context, names []string) ([]models.QuestionCategory, error)
}

type importSubjectResolver interface {
	FindSubjectByID(ctx context.Context, id string) (*models.Subject, error)
}

type importSubCategoryResolver interface {
	ListByCategory(ctx context.Context, categoryID string) ([]models.SubCategory, error)
}

type importTagResolver interface {
	FindByNames(ctx context.Context, names []string) ([]models.QuestionTag, error)
	CreateMany(ctx context.Context, names []string) ([]models.QuestionTag, error)
}

type importBranchResolver interface {
	FindByNames(ctx context.Context, names []string) ([]models.ExamBranch, error)
}

type importQuestionStore interface {
	Count(ctx context.Context) (int, error)
	ExistingLinks(ctx context.Context, links []string) (map[string]bool, error)
	InsertBatch(ctx context.Context, inserts []repository.QuestionInsert) error
}

// ImportConfig tunes the ingestion pipeline.
type ImportConfig struct {
	MaxBatchSize       int
	QuestionNumberBase int
}

// QuestionImportService runs the bulk question ingestion pipeline: taxonomy
// resolution, type inference, answer validation, year cross-validation and
// the batched insert with counter maintenance.
type QuestionImportService struct {
	categories    importCategoryResolver
	subjects      importSubjectResolver
	subCategories importSubCategoryResolver
	tags          importTagResolver
	branches      importBranchResolver
	questions     importQuestionStore
	config        ImportConfig
	logger        *zap.Logger
}

// NewQuestionImportService creates the pipeline service.
func NewQuestionImportService(
	categories importCategoryResolver,
	subjects importSubjectResolver,
	subCategories importSubCategoryResolver,
	tags importTagResolver,
	branches importBranchResolver,
	questions importQuestionStore,
	config ImportConfig,
	logger *zap.Logger,
) *QuestionImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 500
	}
	if config.QuestionNumberBase <= 0 {
		config.QuestionNumberBase = 100000
	}
	return &QuestionImportService{
		categories:    categories,
		subjects:      subjects,
		subCategories: subCategories,
		tags:          tags,
		branches:      branches,
		questions:     questions,
		config:        config,
		logger:        logger,
	}
}

// resolvedRecord pairs a payload key with its record, in deterministic order.
type resolvedRecord struct {
	key    string
	record models.QuestionRecord
	tags   []string
}

// ImportBulk runs the full pipeline over a batch. Per-record failures land in
// result buckets and never abort the batch; only infrastructure failures
// return an error.
func (s *QuestionImportService) ImportBulk(ctx context.Context, req models.BulkImportRequest) (*models.BulkImportResponse, error) {
	if len(req.Questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "questions payload is empty")
	}
	if len(req.Questions) > s.config.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds maximum of %d questions", s.config.MaxBatchSize))
	}
	if len(req.ExamBranchNames) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examBranchNames is required")
	}

	branchNames := make([]string, 0, len(req.ExamBranchNames))
	for _, name := range req.ExamBranchNames {
		branchNames = append(branchNames, NormalizeName(name))
	}
	branches, err := s.branches.FindByNames(ctx, branchNames)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve exam branches")
	}
	if len(branches) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no matching exam branches found")
	}

	var examTagNames []string
	branchIDs := make([]string, 0, len(branches))
	for _, branch := range branches {
		branchIDs = append(branchIDs, branch.ID)
		examTagNames = append(examTagNames, branch.ExamTagNames...)
	}

	// Payload keys are sorted so question numbers are assigned in a stable
	// order for a given payload.
	records := make([]resolvedRecord, 0, len(req.Questions))
	for key, record := range req.Questions {
		tags := make([]string, 0, len(record.Tags))
		for _, tag := range record.Tags {
			if n := NormalizeName(tag); n != "" {
				tags = append(tags, n)
			}
		}
		records = append(records, resolvedRecord{key: key, record: record, tags: tags})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].key < records[j].key })

	categoryByName, err := s.resolveCategories(ctx, records)
	if err != nil {
		return nil, err
	}
	tagByName, err := s.resolveTags(ctx, records)
	if err != nil {
		return nil, err
	}

	existingLinks, err := s.resolveExistingLinks(ctx, records)
	if err != nil {
		return nil, err
	}

	count, err := s.questions.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count questions")
	}
	base := s.config.QuestionNumberBase + count*3

	results := models.ImportResults{
		Success:            []models.ImportSuccess{},
		Errors:             []models.ImportError{},
		AlreadyExists:      []models.ImportError{},
		InactiveTagResults: []models.InactiveTagResult{},
		YearErrors:         []models.YearErrorResult{},
	}
	subjectCache := make(map[string]*models.Subject)
	subCategoryCache := make(map[string][]models.SubCategory)
	inserts := make([]repository.QuestionInsert, 0, len(records))

	for _, rec := range records {
		record := rec.record

		if record.Link == "" {
			results.Errors = append(results.Errors, models.ImportError{Error: fmt.Sprintf("Question '%s' is missing a link", record.Title)})
			continue
		}
		if existingLinks[record.Link] {
			results.AlreadyExists = append(results.AlreadyExists, models.ImportError{
				Error: fmt.Sprintf("Question with link '%s' already exists", record.Link),
				Link:  record.Link,
			})
			continue
		}

		categoryName := NormalizeName(record.Category)
		category, ok := categoryByName[categoryName]
		if !ok {
			results.Errors = append(results.Errors, models.ImportError{
				Error: fmt.Sprintf("Question category '%s' not found", record.Category),
				Link:  record.Link,
			})
			continue
		}

		subject, err := s.subjectFor(ctx, category, subjectCache)
		if err != nil {
			return nil, err
		}
		if subject == nil {
			results.Errors = append(results.Errors, models.ImportError{
				Error: fmt.Sprintf("Subject not found for category '%s'", record.Category),
				Link:  record.Link,
			})
			continue
		}

		if inactive := inactiveTagNames(rec.tags, tagByName); len(inactive) > 0 {
			results.InactiveTagResults = append(results.InactiveTagResults, models.InactiveTagResult{
				InactiveTags: inactive,
				Link:         record.Link,
			})
			continue
		}

		subCategory, err := s.matchSubCategory(ctx, category, rec.tags, subCategoryCache)
		if err != nil {
			return nil, err
		}
		if subCategory == nil {
			results.Errors = append(results.Errors, models.ImportError{
				Error: fmt.Sprintf("Subcategory not found for question '%s'", record.Title),
				Link:  record.Link,
			})
			continue
		}

		year, ok := extractYear(rec.tags, examTagNames)
		if !ok {
			results.YearErrors = append(results.YearErrors, models.YearErrorResult{
				YearError: fmt.Sprintf("No year tag (containing a 4-digit number) found for question '%s'", record.Title),
				Link:      record.Link,
			})
			continue
		}

		kind := models.KindFromTags(rec.tags)
		answer, err := validateAnswer(kind, record.Answer)
		if err != nil {
			results.Errors = append(results.Errors, models.ImportError{Error: err.Error(), Link: record.Link})
			continue
		}

		active := true
		if record.IsActive != nil {
			active = *record.IsActive
		}

		questionNumber := base + (len(inserts)+1)*3 + rand.Intn(3)
		question := &models.Question{
			QuestionNumber:       questionNumber,
			Title:                record.Title,
			Content:              record.Content,
			SubCategoryID:        subCategory.ID,
			SubCategoryName:      subCategory.Name,
			QuestionCategoryID:   category.ID,
			QuestionCategoryName: category.Name,
			SubjectName:          subject.Name,
			Year:                 year,
			Link:                 record.Link,
			IsActive:             active,
			CorrectAnswer:        answer.CorrectAnswer,
			CorrectAnswers:       answer.CorrectAnswers,
			NumericalMin:         answer.NumericalMin,
			NumericalMax:         answer.NumericalMax,
		}

		tagIDs := make([]string, 0, len(rec.tags))
		for _, tagName := range rec.tags {
			if tag, ok := tagByName[tagName]; ok {
				tagIDs = append(tagIDs, tag.ID)
			}
		}

		inserts = append(inserts, repository.QuestionInsert{
			Question:      question,
			TagIDs:        tagIDs,
			ExamBranchIDs: branchIDs,
		})
	}

	if err := s.questions.InsertBatch(ctx, inserts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert questions")
	}

	for _, in := range inserts {
		results.Success = append(results.Success, models.ImportSuccess{
			QuestionID:     in.Question.ID,
			QuestionNumber: in.Question.QuestionNumber,
			Title:          in.Question.Title,
			Answer:         displayAnswer(in.Question),
			Link:           in.Question.Link,
		})
	}

	summary := models.ImportSummary{
		Total:         len(records),
		Successful:    len(results.Success),
		Failed:        len(results.Errors) + len(results.YearErrors),
		AlreadyExists: len(results.AlreadyExists),
		InactiveTags:  len(results.InactiveTagResults),
	}

	s.logger.Info("bulk question import finished",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("already_exists", summary.AlreadyExists),
		zap.Int("inactive_tags", summary.InactiveTags),
	)

	return &models.BulkImportResponse{
		Message: "Bulk question import processed",
		Summary: summary,
		Results: results,
	}, nil
}

// ImportOne runs the identical pipeline over a single record and returns the
// created question or the first recorded failure.
func (s *QuestionImportService) ImportOne(ctx context.Context, record models.QuestionRecord, examBranchNames []string) (*models.ImportSuccess, error) {
	resp, err := s.ImportBulk(ctx, models.BulkImportRequest{
		Questions:       map[string]models.QuestionRecord{"q1": record},
		ExamBranchNames: examBranchNames,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case len(resp.Results.Success) > 0:
		return &resp.Results.Success[0], nil
	case len(resp.Results.AlreadyExists) > 0:
		return nil, appErrors.Clone(appErrors.ErrDuplicateLink, resp.Results.AlreadyExists[0].Error)
	case len(resp.Results.InactiveTagResults) > 0:
		return nil, appErrors.Clone(appErrors.ErrInactiveTags, fmt.Sprintf("question references inactive tags: %v", resp.Results.InactiveTagResults[0].InactiveTags))
	case len(resp.Results.YearErrors) > 0:
		return nil, appErrors.Clone(appErrors.ErrYearTagMissing, resp.Results.YearErrors[0].YearError)
	case len(resp.Results.Errors) > 0:
		return nil, appErrors.Clone(appErrors.ErrValidation, resp.Results.Errors[0].Error)
	default:
		return nil, appErrors.Clone(appErrors.ErrInternal, "import produced no result")
	}
}

func (s *QuestionImportService) resolveCategories(ctx context.Context, records []resolvedRecord) (map[string]*models.QuestionCategory, error) {
	distinct := make(map[string]bool)
	names := make([]string, 0)
	for _, rec := range records {
		name := NormalizeName(rec.record.Category)
		if name != "" && !distinct[name] {
			distinct[name] = true
			names = append(names, name)
		}
	}

	categories, err := s.categories.FindByNames(ctx, names)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve categories")
	}

	out := make(map[string]*models.QuestionCategory, len(categories))
	for i := range categories {
		out[categories[i].Name] = &categories[i]
	}
	return out, nil
}

// resolveTags resolves the distinct tag union of the batch, minting any name
// not yet stored. Tag resolution never rejects a record.
func (s *QuestionImportService) resolveTags(ctx context.Context, records []resolvedRecord) (map[string]*models.QuestionTag, error) {
	distinct := make(map[string]bool)
	names := make([]string, 0)
	for _, rec := range records {
		for _, tag := range rec.tags {
			if !distinct[tag] {
				distinct[tag] = true
				names = append(names, tag)
			}
		}
	}
	if len(names) == 0 {
		return map[string]*models.QuestionTag{}, nil
	}

	existing, err := s.tags.FindByNames(ctx, names)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve tags")
	}

	out := make(map[string]*models.QuestionTag, len(names))
	for i := range existing {
		out[existing[i].Name] = &existing[i]
	}

	missing := make([]string, 0)
	for _, name := range names {
		if _, ok := out[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		minted, err := s.tags.CreateMany(ctx, missing)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tags")
		}
		for i := range minted {
			out[minted[i].Name] = &minted[i]
		}
	}
	return out, nil
}

func (s *QuestionImportService) resolveExistingLinks(ctx context.Context, records []resolvedRecord) (map[string]bool, error) {
	links := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.record.Link != "" {
			links = append(links, rec.record.Link)
		}
	}
	existing, err := s.questions.ExistingLinks(ctx, links)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing links")
	}
	return existing, nil
}

func (s *QuestionImportService) subjectFor(ctx context.Context, category *models.QuestionCategory, cache map[string]*models.Subject) (*models.Subject, error) {
	if subject, ok := cache[category.SubjectID]; ok {
		return subject, nil
	}
	subject, err := s.subjects.FindSubjectByID(ctx, category.SubjectID)
	if err != nil {
		if isNoRows(err) {
			cache[category.SubjectID] = nil
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject")
	}
	cache[category.SubjectID] = subject
	return subject, nil
}

// matchSubCategory performs the two-step match: prefer a subcategory named by
// one of the record's tags (other than the category's own name) that is linked
// to the category, then fall back to the category's self-named subcategory.
func (s *QuestionImportService) matchSubCategory(ctx context.Context, category *models.QuestionCategory, tags []string, cache map[string][]models.SubCategory) (*models.SubCategory, error) {
	subs, ok := cache[category.ID]
	if !ok {
		var err error
		subs, err = s.subCategories.ListByCategory(ctx, category.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subcategories")
		}
		cache[category.ID] = subs
	}

	byName := make(map[string]*models.SubCategory, len(subs))
	for i := range subs {
		byName[subs[i].Name] = &subs[i]
	}

	for _, tag := range tags {
		if tag == category.Name {
			continue
		}
		if sub, ok := byName[tag]; ok {
			return sub, nil
		}
	}
	if sub, ok := byName[category.Name]; ok {
		return sub, nil
	}
	return nil, nil
}

func inactiveTagNames(tags []string, tagByName map[string]*models.QuestionTag) []string {
	var inactive []string
	for _, name := range tags {
		if tag, ok := tagByName[name]; ok && !tag.IsActive {
			inactive = append(inactive, name)
		}
	}
	return inactive
}
