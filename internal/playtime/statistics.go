package playtime

import (
	"fmt"
	"sort"
	"time"

	"playtime/internal/database"
	"playtime/internal/model"
)

// Statistics produces calendar-bucketed, checksum-merged views over the
// session ledger. All reads for one report are issued inside a single unit
// of work so they observe a consistent snapshot.
type Statistics struct {
	store  *database.Store
	logger Logger
}

// NewStatistics creates a Statistics service.
func NewStatistics(store *database.Store, logger Logger) *Statistics {
	return &Statistics{store: store, logger: logger}
}

// DailyStatisticsForPeriod returns one bucket per calendar day in
// [start, end] inclusive, each holding per-component game entries and a day
// total. Days without activity are emitted with an empty game list. When
// gameID is non-empty the report covers that game's whole component, so
// filtering by one game implicitly includes its aliased history.
func (s *Statistics) DailyStatisticsForPeriod(start, end time.Time, gameID string) (*model.PagedDayStatistics, error) {
	begin := startOfDay(start)
	finish := endOfDay(end)
	nextMidnight := startOfDay(end).AddDate(0, 0, 1)

	var paged *model.PagedDayStatistics
	err := s.store.WithTx(func(tx *database.Tx) error {
		edges, err := tx.ChecksumEdges()
		if err != nil {
			return err
		}
		resolver := NewResolver(edges)

		var filter []string
		if gameID != "" {
			filter = resolver.ComponentOf(gameID)
		}

		reports, err := tx.PerDayReport(begin, finish, filter)
		if err != nil {
			return err
		}

		sessions, err := tx.SessionsForPeriod(begin, nextMidnight, filter)
		if err != nil {
			return err
		}
		sessionsByDayAndGame := groupSessionsByDayAndGame(sessions)

		lastSessions := map[string]model.SessionInformation{}
		if ids := reportedGameIDs(reports); len(ids) > 0 {
			lastSessions, err = tx.LastSessions(ids)
			if err != nil {
				return err
			}
		}

		reportsByDate := make(map[string][]database.DailyGameTime)
		for _, r := range reports {
			reportsByDate[r.Date] = append(reportsByDate[r.Date], r)
		}

		var days []*model.DayStatistics
		for day := begin; !day.After(finish); day = day.AddDate(0, 0, 1) {
			date := day.Format(database.DateLayout)

			games := make([]*model.GameWithTime, 0)
			total := 0.0
			for _, r := range reportsByDate[date] {
				var last *model.SessionInformation
				if ls, ok := lastSessions[r.GameID]; ok {
					lsCopy := ls
					last = &lsCopy
				}
				games = append(games, &model.GameWithTime{
					Game:        model.Game{ID: r.GameID, Name: r.GameName},
					Time:        r.Time,
					Sessions:    sessionsByDayAndGame[date][r.GameID],
					LastSession: last,
				})
				total += r.Time
			}

			days = append(days, &model.DayStatistics{
				Date:  date,
				Games: mergeGamesByComponent(games, resolver),
				Total: total,
			})
		}

		hasPrev, err := tx.HasDataBefore(begin, filter)
		if err != nil {
			return err
		}
		hasNext, err := tx.HasDataAfter(finish, filter)
		if err != nil {
			return err
		}

		paged = &model.PagedDayStatistics{Data: days, HasPrev: hasPrev, HasNext: hasNext}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building daily statistics: %w", err)
	}
	return paged, nil
}

// mergeGamesByComponent collapses same-day entries whose raw ids belong to
// one checksum component. The merged entry keeps the identity and last
// session of the member with the smallest raw id (the component's canonical
// id among the day's entries), sums the durations, and re-sorts the unioned
// session list newest-first. Entries stay at the position of their group's
// first occurrence.
func mergeGamesByComponent(games []*model.GameWithTime, resolver *Resolver) []*model.GameWithTime {
	groups := make(map[string][]*model.GameWithTime)
	var order []string
	for _, g := range games {
		key := resolver.Resolve(g.Game.ID)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], g)
	}

	merged := make([]*model.GameWithTime, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}

		representative := group[0]
		total := 0.0
		var allSessions []model.SessionInformation
		for _, g := range group {
			if g.Game.ID < representative.Game.ID {
				representative = g
			}
			total += g.Time
			allSessions = append(allSessions, g.Sessions...)
		}
		sortSessionsNewestFirst(allSessions)

		merged = append(merged, &model.GameWithTime{
			Game:        representative.Game,
			Time:        total,
			Sessions:    allSessions,
			LastSession: representative.LastSession,
		})
	}
	return merged
}

// PerGameOverallStatistic returns one entry per checksum component across
// all time: summed durations, the union of the component's sessions sorted
// newest-first, and the component's most recent session. Output order is
// deterministic: components appear in order of their canonical id.
func (s *Statistics) PerGameOverallStatistic() ([]*model.GameWithTime, error) {
	var result []*model.GameWithTime
	err := s.store.WithTx(func(tx *database.Tx) error {
		edges, err := tx.ChecksumEdges()
		if err != nil {
			return err
		}
		resolver := NewResolver(edges)

		overall, err := tx.OverallPlaytime()
		if err != nil {
			return err
		}
		sessions, err := tx.AllSessions()
		if err != nil {
			return err
		}
		lastByGame, err := tx.LastSessions(nil)
		if err != nil {
			return err
		}

		// Overall rows arrive ordered by game id, so the first member seen
		// for a component is its smallest id present in the ledger.
		groups := make(map[string][]database.GameTimeRow)
		var order []string
		for _, row := range overall {
			key := resolver.Resolve(row.GameID)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], row)
		}

		sessionsByKey := make(map[string][]model.SessionInformation)
		for _, gs := range sessions {
			key := resolver.Resolve(gs.GameID)
			sessionsByKey[key] = append(sessionsByKey[key], gs.Session)
		}

		result = make([]*model.GameWithTime, 0, len(order))
		for _, key := range order {
			group := groups[key]
			representative := group[0]

			total := 0.0
			for _, row := range group {
				total += row.Time
			}

			groupSessions := sessionsByKey[key]
			sortSessionsNewestFirst(groupSessions)

			var last *model.SessionInformation
			if len(groupSessions) > 0 {
				lsCopy := groupSessions[0]
				last = &lsCopy
			} else if ls, ok := lastByGame[representative.GameID]; ok {
				lsCopy := ls
				last = &lsCopy
			}

			result = append(result, &model.GameWithTime{
				Game:        model.Game{ID: representative.GameID, Name: representative.GameName},
				Time:        total,
				Sessions:    groupSessions,
				LastSession: last,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building per-game overall statistic: %w", err)
	}
	return result, nil
}

// PlaytimeInformation returns a component-level overview across all time:
// total duration, last played date, and the aliases folded into each entry.
// Ordered by last played date descending, then game id descending.
func (s *Statistics) PlaytimeInformation() ([]*model.PlaytimeInformation, error) {
	return s.playtimeInformation(func(tx *database.Tx) ([]database.GameStatsRow, error) {
		return tx.GameStats()
	}, false)
}

// PlaytimeInformationForPeriod is PlaytimeInformation restricted to
// durations accumulated within [start, end); components without play time
// in the period are omitted. Last played dates still span all time.
func (s *Statistics) PlaytimeInformationForPeriod(start, end time.Time) ([]*model.PlaytimeInformation, error) {
	return s.playtimeInformation(func(tx *database.Tx) ([]database.GameStatsRow, error) {
		return tx.PeriodGameStats(start, end)
	}, true)
}

func (s *Statistics) playtimeInformation(
	fetch func(tx *database.Tx) ([]database.GameStatsRow, error),
	skipZero bool,
) ([]*model.PlaytimeInformation, error) {
	var result []*model.PlaytimeInformation
	err := s.store.WithTx(func(tx *database.Tx) error {
		edges, err := tx.ChecksumEdges()
		if err != nil {
			return err
		}
		resolver := NewResolver(edges)

		stats, err := fetch(tx)
		if err != nil {
			return err
		}

		grouped := make(map[string]*model.PlaytimeInformation)
		nameByID := make(map[string]string, len(stats))
		for _, row := range stats {
			nameByID[row.GameID] = row.GameName
			leader := resolver.Resolve(row.GameID)

			entry, ok := grouped[leader]
			if !ok {
				entry = &model.PlaytimeInformation{GameID: leader}
				grouped[leader] = entry
			}
			entry.TotalTime += row.TotalTime
			if row.LastPlayed > entry.LastPlayedDate {
				entry.LastPlayedDate = row.LastPlayed
			}
			if row.GameID != leader {
				entry.Aliases = append(entry.Aliases, row.GameID)
			}
		}

		result = make([]*model.PlaytimeInformation, 0, len(grouped))
		for _, entry := range grouped {
			if skipZero && entry.TotalTime == 0 {
				continue
			}
			entry.GameName = nameByID[entry.GameID]
			sort.Strings(entry.Aliases)
			result = append(result, entry)
		}
		sort.Slice(result, func(i, j int) bool {
			if result[i].LastPlayedDate != result[j].LastPlayedDate {
				return result[i].LastPlayedDate > result[j].LastPlayedDate
			}
			return result[i].GameID > result[j].GameID
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building playtime information: %w", err)
	}
	return result, nil
}

// groupSessionsByDayAndGame indexes sessions by calendar day, then raw id.
func groupSessionsByDayAndGame(sessions []database.GameSession) map[string]map[string][]model.SessionInformation {
	grouped := make(map[string]map[string][]model.SessionInformation)
	for _, gs := range sessions {
		if len(gs.Session.Date) < len(database.DateLayout) {
			continue
		}
		date := gs.Session.Date[:len(database.DateLayout)]
		byGame, ok := grouped[date]
		if !ok {
			byGame = make(map[string][]model.SessionInformation)
			grouped[date] = byGame
		}
		byGame[gs.GameID] = append(byGame[gs.GameID], gs.Session)
	}
	return grouped
}

func reportedGameIDs(reports []database.DailyGameTime) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range reports {
		if !seen[r.GameID] {
			seen[r.GameID] = true
			ids = append(ids, r.GameID)
		}
	}
	return ids
}

// Timestamps share one fixed-width layout, so string order is time order.
func sortSessionsNewestFirst(sessions []model.SessionInformation) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date > sessions[j].Date
	})
}
