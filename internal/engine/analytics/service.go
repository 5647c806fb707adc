package analytics

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetSnapshotHistory(sourceID string, start, end int64, limit, offset int) ([]Record, error) {
	return s.repo.List(sourceID, start, end, limit, offset)
}

// GetBreakdown drops the parser's Unknown sentinels unless includeUnknown is set.
func (s *Service) GetBreakdown(sourceID, dimension string, start, end int64, includeUnknown bool) ([]BreakdownEntry, error) {
	entries, err := s.repo.Breakdown(sourceID, dimension, start, end)
	if err != nil || includeUnknown {
		return entries, err
	}

	known := entries[:0]
	for _, e := range entries {
		if !IsUnknownLabel(e.Label) {
			known = append(known, e)
		}
	}
	return known, nil
}

func (s *Service) GetStatsOverview(sourceID, startDate, endDate string) ([]DailyStat, error) {
	return s.repo.GetDailyStats(sourceID, startDate, endDate)
}
