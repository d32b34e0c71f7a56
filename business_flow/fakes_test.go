package businessflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// fakeCampaignRepo keeps campaigns in memory; SwapNextSequence is a real compare-and-swap
type fakeCampaignRepo struct {
	mu        sync.Mutex
	rows      map[uint]*models.SurveyCampaign
	failSwaps int
	swapCalls int
}

func newFakeCampaignRepo(campaigns ...*models.SurveyCampaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{rows: map[uint]*models.SurveyCampaign{}}
	for _, c := range campaigns {
		r.rows[c.ID] = c
	}
	return r
}

func (r *fakeCampaignRepo) counter(id uint) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].NextSequenceNumber
}

func (r *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.SurveyCampaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.SurveyCampaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.UUID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) SwapNextSequence(ctx context.Context, campaignID uint, expected, next int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapCalls++
	if r.failSwaps > 0 {
		r.failSwaps--
		return false, nil
	}
	c, ok := r.rows[campaignID]
	if !ok || c.NextSequenceNumber != expected {
		return false, nil
	}
	c.NextSequenceNumber = next
	return true, nil
}

func (r *fakeCampaignRepo) ByFilter(ctx context.Context, f models.SurveyCampaignFilter, orderBy string, limit, offset int) ([]*models.SurveyCampaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SurveyCampaign
	for _, c := range r.rows {
		if f.ClientID != nil && c.ClientID != *f.ClientID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *models.SurveyCampaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uint(len(r.rows) + 1)
	r.rows[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) SaveBatch(ctx context.Context, cs []*models.SurveyCampaign) error {
	for _, c := range cs {
		_ = r.Save(ctx, c)
	}
	return nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, f models.SurveyCampaignFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeCampaignRepo) Exists(ctx context.Context, f models.SurveyCampaignFilter) (bool, error) {
	c, _ := r.Count(ctx, f)
	return c > 0, nil
}

var _ repository.SurveyCampaignRepository = (*fakeCampaignRepo)(nil)

// fakeEntryRepo enforces the three per-campaign unique constraints of survey_entries
type fakeEntryRepo struct {
	mu         sync.Mutex
	rows       []*models.SurveyEntry
	beforeSave func()
	saveErr    error
	lookupErr  error
}

func (r *fakeEntryRepo) all() []*models.SurveyEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SurveyEntry, len(r.rows))
	copy(out, r.rows)
	return out
}

func (r *fakeEntryRepo) insert(e *models.SurveyEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.CampaignID != e.CampaignID {
			continue
		}
		switch {
		case row.PhoneNorm == e.PhoneNorm:
			return uniqueViolation(repository.ConstraintEntryCampaignPhone)
		case row.SequenceNumber == e.SequenceNumber:
			return uniqueViolation(repository.ConstraintEntryCampaignSeq)
		case row.ConfirmationCode == e.ConfirmationCode:
			return uniqueViolation(repository.ConstraintEntryCampaignCode)
		}
	}
	e.ID = uint(len(r.rows) + 1)
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	r.rows = append(r.rows, e)
	return nil
}

func (r *fakeEntryRepo) Save(ctx context.Context, e *models.SurveyEntry) error {
	if r.beforeSave != nil {
		hook := r.beforeSave
		r.beforeSave = nil
		hook()
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.insert(e)
}

func (r *fakeEntryRepo) SaveBatch(ctx context.Context, es []*models.SurveyEntry) error {
	for _, e := range es {
		if err := r.insert(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeEntryRepo) ByID(ctx context.Context, id uint) (*models.SurveyEntry, error) {
	for _, e := range r.all() {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeEntryRepo) ByCampaignPhone(ctx context.Context, campaignID uint, phoneNorm string) (*models.SurveyEntry, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, e := range r.all() {
		if e.CampaignID == campaignID && e.PhoneNorm == phoneNorm {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeEntryRepo) CodeExists(ctx context.Context, campaignID uint, code string) (bool, error) {
	for _, e := range r.all() {
		if e.CampaignID == campaignID && e.ConfirmationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntryRepo) ByFilter(ctx context.Context, f models.SurveyEntryFilter, orderBy string, limit, offset int) ([]*models.SurveyEntry, error) {
	var out []*models.SurveyEntry
	for _, e := range r.all() {
		if f.CampaignID != nil && e.CampaignID != *f.CampaignID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeEntryRepo) Count(ctx context.Context, f models.SurveyEntryFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeEntryRepo) Exists(ctx context.Context, f models.SurveyEntryFilter) (bool, error) {
	c, _ := r.Count(ctx, f)
	return c > 0, nil
}

var _ repository.SurveyEntryRepository = (*fakeEntryRepo)(nil)

type fakeFormRepo struct {
	mu          sync.Mutex
	submissions []*models.FormSubmission
	answers     []*models.FormAnswer
	saveErr     error
	answersErr  error
}

func (r *fakeFormRepo) Save(ctx context.Context, s *models.FormSubmission) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uint(len(r.submissions) + 1)
	r.submissions = append(r.submissions, s)
	return nil
}

func (r *fakeFormRepo) SaveAnswers(ctx context.Context, answers []*models.FormAnswer) error {
	if r.answersErr != nil {
		return r.answersErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, answers...)
	return nil
}

func (r *fakeFormRepo) SaveBatch(ctx context.Context, ss []*models.FormSubmission) error {
	for _, s := range ss {
		_ = r.Save(ctx, s)
	}
	return nil
}

func (r *fakeFormRepo) ByID(ctx context.Context, id uint) (*models.FormSubmission, error) {
	return nil, nil
}

func (r *fakeFormRepo) ByFilter(ctx context.Context, f models.FormSubmissionFilter, orderBy string, limit, offset int) ([]*models.FormSubmission, error) {
	return r.submissions, nil
}

func (r *fakeFormRepo) Count(ctx context.Context, f models.FormSubmissionFilter) (int64, error) {
	return int64(len(r.submissions)), nil
}

func (r *fakeFormRepo) Exists(ctx context.Context, f models.FormSubmissionFilter) (bool, error) {
	return len(r.submissions) > 0, nil
}

var _ repository.FormSubmissionRepository = (*fakeFormRepo)(nil)

type fakeVisitRepo struct {
	mu      sync.Mutex
	rows    []*models.CampaignVisit
	saveErr error
}

func (r *fakeVisitRepo) Save(ctx context.Context, v *models.CampaignVisit) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, v)
	return nil
}

func (r *fakeVisitRepo) SaveBatch(ctx context.Context, vs []*models.CampaignVisit) error {
	for _, v := range vs {
		_ = r.Save(ctx, v)
	}
	return nil
}

func (r *fakeVisitRepo) ByID(ctx context.Context, id uint) (*models.CampaignVisit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeVisitRepo) LatestUnconverted(ctx context.Context, campaignID uint, sessionID string) (*models.CampaignVisit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.CampaignVisit
	for _, v := range r.rows {
		if v.CampaignID != campaignID || v.SessionID != sessionID || v.ConvertedAt != nil {
			continue
		}
		if latest == nil || v.AccessedAt.After(latest.AccessedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeVisitRepo) MarkConverted(ctx context.Context, visitID, entryID uint, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.ID == visitID && v.ConvertedAt == nil {
			v.ConvertedAt = &at
			v.LinkedEntryID = &entryID
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVisitRepo) ByFilter(ctx context.Context, f models.CampaignVisitFilter, orderBy string, limit, offset int) ([]*models.CampaignVisit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.CampaignVisit, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *fakeVisitRepo) Count(ctx context.Context, f models.CampaignVisitFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeVisitRepo) Exists(ctx context.Context, f models.CampaignVisitFilter) (bool, error) {
	c, _ := r.Count(ctx, f)
	return c > 0, nil
}

var _ repository.CampaignVisitRepository = (*fakeVisitRepo)(nil)

// fakeLinkRepo backs both the cid lookup and the marketing link flow
type fakeLinkRepo struct {
	mu          sync.Mutex
	rows        []*models.MarketingLink
	lookupErr   error
	lookupCalls int
	saveErr     error
	byIDErr     error
}

func (r *fakeLinkRepo) ActiveByCID(ctx context.Context, clientID uuid.UUID, cid string) (*models.MarketingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookupCalls++
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, l := range r.rows {
		if l.ClientID == clientID && l.CID == cid && l.Status == models.MarketingLinkStatusActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupCalls
}

func (r *fakeLinkRepo) Save(ctx context.Context, l *models.MarketingLink) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ClientID == l.ClientID && row.CID == l.CID && row.Status == models.MarketingLinkStatusActive && l.Status == models.MarketingLinkStatusActive {
			return uniqueViolation(repository.ConstraintMarketingLinkCID)
		}
	}
	l.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, l)
	return nil
}

func (r *fakeLinkRepo) SaveBatch(ctx context.Context, ls []*models.MarketingLink) error {
	for _, l := range ls {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLinkRepo) ByID(ctx context.Context, id uint) (*models.MarketingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byIDErr != nil {
		return nil, r.byIDErr
	}
	for _, l := range r.rows {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.MarketingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.rows {
		if l.UUID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) UpdateStatus(ctx context.Context, id uint, status models.MarketingLinkStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.rows {
		if l.ID == id {
			l.Status = status
			return nil
		}
	}
	return repository.ErrMarketingLinkNotFound
}

func (r *fakeLinkRepo) ByFilter(ctx context.Context, f models.MarketingLinkFilter, orderBy string, limit, offset int) ([]*models.MarketingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MarketingLink
	for _, l := range r.rows {
		if f.ClientID != nil && l.ClientID != *f.ClientID {
			continue
		}
		if f.CID != nil && l.CID != *f.CID {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.TargetCampaignID != nil && !l.TargetsCampaign(*f.TargetCampaignID) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeLinkRepo) Count(ctx context.Context, f models.MarketingLinkFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeLinkRepo) Exists(ctx context.Context, f models.MarketingLinkFilter) (bool, error) {
	c, _ := r.Count(ctx, f)
	return c > 0, nil
}

var _ repository.MarketingLinkRepository = (*fakeLinkRepo)(nil)

type fakeStatsRepo struct {
	visits      []*models.MarketingStatDaily
	conversions []*models.MarketingStatDaily
	stored      []*models.MarketingStatDaily
	upsertErr   error
}

func (r *fakeStatsRepo) VisitBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error) {
	return r.visits, nil
}

func (r *fakeStatsRepo) ConversionBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error) {
	return r.conversions, nil
}

func (r *fakeStatsRepo) Upsert(ctx context.Context, rows []*models.MarketingStatDaily) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.stored = rows
	return nil
}

func (r *fakeStatsRepo) ByFilter(ctx context.Context, f models.MarketingStatDailyFilter, orderBy string, limit, offset int) ([]*models.MarketingStatDaily, error) {
	var out []*models.MarketingStatDaily
	for _, row := range r.stored {
		if f.CampaignID != nil && row.CampaignID != *f.CampaignID {
			continue
		}
		if f.FromDate != nil && row.BucketDate.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && row.BucketDate.After(*f.ToDate) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

var _ repository.MarketingStatDailyRepository = (*fakeStatsRepo)(nil)

type fakeDedup struct {
	seen map[string]bool
	err  error
}

func (d *fakeDedup) FirstInWindow(ctx context.Context, campaignID uint, sessionID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[sessionID] {
		return false, nil
	}
	d.seen[sessionID] = true
	return true, nil
}

func (d *fakeDedup) Release(ctx context.Context, campaignID uint, sessionID string) error {
	delete(d.seen, sessionID)
	return nil
}
