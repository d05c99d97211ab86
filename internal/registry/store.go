package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agenthub/registry/internal/shared"
	"github.com/qdrant/go-client/qdrant"
	"gorm.io/gorm"
)

const embeddingCollection = "agents"

type Store struct {
	db     *gorm.DB
	qdrant *qdrant.Client
	locks  *keyedLocks
}

func NewStore(db *gorm.DB, qdrantClient *qdrant.Client) *Store {
	return &Store{
		db:     db,
		qdrant: qdrantClient,
		locks:  newKeyedLocks(),
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Agent{}, &Review{}, &Download{})
}

func (s *Store) Create(ctx context.Context, a *Agent) error {
	if a.PublishedAt.IsZero() {
		a.PublishedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Agent, error) {
	var a Agent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &a, err
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) Save(ctx context.Context, a *Agent) error {
	return s.db.WithContext(ctx).Save(a).Error
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Agent{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	s.locks.Remove(id)
	return nil
}

// IncrementViews bumps the view counter in one SQL expression; no keyed
// lock is needed for a single-column add.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// SearchParams are the decoded query parameters for keyword search.
type SearchParams struct {
	Query    string
	Category string
	Tags     []string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// sortColumns whitelists the fields search may order by.
var sortColumns = map[string]string{
	"downloads":          "downloads",
	"views":              "views",
	"rating":             "rating",
	"review_count":       "review_count",
	"name":               "name",
	"published_at":       "published_at",
	"test_coverage":      "test_coverage",
	"performance_rating": "performance_rating",
}

// Search filters agents by substring match on name/description/author,
// exact category and any-of tags, then sorts and paginates. Tag matching
// runs in memory over the SQL-filtered rows: tags live in a JSON column
// and the collection sizes here do not justify a join table.
func (s *Store) Search(ctx context.Context, params SearchParams) ([]*Agent, int, error) {
	q := s.db.WithContext(ctx).Model(&Agent{})

	if params.Query != "" {
		needle := "%" + strings.ToLower(params.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(author) LIKE ?", needle, needle, needle)
	}
	if params.Category != "" {
		q = q.Where("category = ?", params.Category)
	}

	column, ok := sortColumns[params.Sort]
	if !ok {
		column = "downloads"
	}
	direction := "DESC"
	if strings.EqualFold(params.Order, "asc") {
		direction = "ASC"
	}

	var agents []*Agent
	if err := q.Order(column + " " + direction).Find(&agents).Error; err != nil {
		return nil, 0, err
	}

	if len(params.Tags) > 0 {
		agents = filterByTags(agents, params.Tags)
	}

	total := len(agents)
	start := (params.Page - 1) * params.Limit
	if start >= total {
		return []*Agent{}, total, nil
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return agents[start:end], total, nil
}

func filterByTags(agents []*Agent, tags []string) []*Agent {
	out := make([]*Agent, 0, len(agents))
	for _, a := range agents {
		for _, t := range tags {
			if a.Tags.Contains(t) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Trending orders agents by the weighted discovery score
// 0.4*downloads + 0.3*views + 0.3*(rating*20), computed in SQL.
func (s *Store) Trending(ctx context.Context, limit int) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Model(&Agent{}).
		Order("(0.4 * downloads + 0.3 * views + 6.0 * rating) DESC").
		Limit(limit).
		Find(&agents).Error
	return agents, err
}

func (s *Store) TopRated(ctx context.Context, limit int) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Order("rating DESC").Limit(limit).Find(&agents).Error
	return agents, err
}

func (s *Store) TopRatedInCategories(ctx context.Context, categories []string, limit int) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Where("category IN ?", categories).
		Order("rating DESC").Limit(limit).Find(&agents).Error
	return agents, err
}

func (s *Store) TopDownloaded(ctx context.Context, limit int) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Order("downloads DESC").Limit(limit).Find(&agents).Error
	return agents, err
}

// CategoryCounts groups all agents by category.
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&Agent{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

// LatestByName returns the highest published version for a name, by
// numeric per-segment comparison.
func (s *Store) LatestByName(ctx context.Context, name string) (*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Where("name = ?", name).Find(&agents).Error
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, shared.ErrNotFound
	}

	latest := agents[0]
	for _, a := range agents[1:] {
		if CompareVersions(a.Version, latest.Version) > 0 {
			latest = a
		}
	}
	return latest, nil
}

// Install appends a download record and bumps the counter. The keyed
// lock keeps the bump atomic relative to rating updates on the same id.
func (s *Store) Install(ctx context.Context, agentID, userID, version string) (*Download, error) {
	record := &Download{
		ID:        shared.NewID("dl_"),
		AgentID:   agentID,
		UserID:    userID,
		Version:   version,
		CreatedAt: time.Now(),
	}

	lock := s.locks.Lock(agentID)
	defer lock.Unlock()

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", agentID).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error
	return record, err
}

func (s *Store) DownloadsByUser(ctx context.Context, userID string) ([]*Download, error) {
	var downloads []*Download
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&downloads).Error
	return downloads, err
}

// InstalledCategories collects the distinct categories of agents the
// user has installed, for recommendation filtering.
func (s *Store) InstalledCategories(ctx context.Context, userID string) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&Download{}).
		Joins("JOIN agents ON agents.id = downloads.agent_id").
		Where("downloads.user_id = ?", userID).
		Distinct().
		Pluck("agents.category", &categories).Error
	return categories, err
}

// ApplyRating folds one rating into the running mean under the per-agent
// lock: rating = (old*count + new) / (count+1), reviewCount += 1.
func (s *Store) ApplyRating(ctx context.Context, agentID string, rating int) (*Agent, error) {
	lock := s.locks.Lock(agentID)
	defer lock.Unlock()

	agent, err := s.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	newCount := agent.ReviewCount + 1
	agent.Rating = (agent.Rating*float64(agent.ReviewCount) + float64(rating)) / float64(newCount)
	agent.ReviewCount = newCount

	err = s.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", agentID).
		Updates(map[string]any{
			"rating":       agent.Rating,
			"review_count": agent.ReviewCount,
		}).Error
	return agent, err
}

// CreateReview stores the review and folds its rating into the agent's
// running mean. The unique (agent,user) index backs the one-review-per-
// user invariant; GetUserReview gives the caller a clean conflict first.
func (s *Store) CreateReview(ctx context.Context, review *Review) (*Agent, error) {
	if review.ID == "" {
		review.ID = shared.NewID("rev_")
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return s.ApplyRating(ctx, review.AgentID, review.Rating)
}

func (s *Store) GetUserReview(ctx context.Context, userID, agentID string) (*Review, error) {
	var review Review
	err := s.db.WithContext(ctx).Where("user_id = ? AND agent_id = ?", userID, agentID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &review, err
}

// GetReviews returns one page of an agent's reviews, newest first.
func (s *Store) GetReviews(ctx context.Context, agentID string, page, limit int) ([]*Review, int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Review{}).Where("agent_id = ?", agentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []*Review
	err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	return reviews, int(total), err
}

// RatingDistribution counts an agent's reviews per integer rating 1..5.
func (s *Store) RatingDistribution(ctx context.Context, agentID string) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&Review{}).
		Select("rating, COUNT(*) as count").
		Where("agent_id = ?", agentID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	distribution := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		distribution[row.Rating] = row.Count
	}
	return distribution, nil
}

func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*Agent, error) {
	if s.qdrant == nil {
		return nil, errors.New("qdrant client not configured")
	}

	results, err := s.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: embeddingCollection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Id != nil {
			if uuid := r.Id.GetUuid(); uuid != "" {
				ids = append(ids, uuid)
			}
		}
	}

	if len(ids) == 0 {
		return []*Agent{}, nil
	}

	var agents []*Agent
	err = s.db.WithContext(ctx).Where("id IN ?", ids).Find(&agents).Error
	return agents, err
}

func (s *Store) UpsertEmbedding(ctx context.Context, agentID string, embedding []float32) error {
	if s.qdrant == nil {
		return errors.New("qdrant client not configured")
	}

	_, err := s.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: embeddingCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(agentID),
				Vectors: qdrant.NewVectors(embedding...),
			},
		},
	})
	return err
}

func (s *Store) DeleteEmbedding(ctx context.Context, agentID string) error {
	if s.qdrant == nil {
		// No vector store means no embedding to remove.
		return nil
	}

	_, err := s.qdrant.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: embeddingCollection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(agentID)),
	})
	return err
}
