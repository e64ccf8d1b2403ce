package model

import "fmt"

// Game is a raw game identity as reported by the caller. The same physical
// game may appear under several IDs (platform IDs, regions, re-releases);
// identities are linked through shared file checksums.
type Game struct {
	ID   string
	Name string
}

// SessionInformation is one recorded interval of play time.
// Source is empty for organically tracked sessions and carries a provenance
// tag (e.g. "manually-changed") for correction-generated rows.
type SessionInformation struct {
	Date     string // "2006-01-02T15:04:05"
	Duration float64
	Source   string
}

// GameWithTime is a per-game statistic entry: total time plus the sessions
// that produced it. After checksum merging it may span several raw IDs.
type GameWithTime struct {
	Game        Game
	Time        float64
	Sessions    []SessionInformation
	LastSession *SessionInformation
}

// DayStatistics holds all game entries for one calendar day.
// Days with no activity are still emitted with Games=[] and Total=0.
type DayStatistics struct {
	Date  string // "2006-01-02"
	Games []*GameWithTime
	Total float64
}

// PagedDayStatistics is a gap-free run of day buckets plus flags telling the
// caller whether sessions exist outside the requested range.
type PagedDayStatistics struct {
	Data    []*DayStatistics
	HasPrev bool
	HasNext bool
}

// GameInformation is the dictionary view of a single tracked game.
type GameInformation struct {
	ID   string
	Name string
	Time float64
}

// PlaytimeInformation is a component-level overview row: one entry per group
// of checksum-aliased games, keyed by the component's canonical ID.
type PlaytimeInformation struct {
	GameID         string
	GameName       string
	TotalTime      float64
	LastPlayedDate string
	Aliases        []string
}

// FileChecksum is one stored checksum edge. GameName is empty when the game
// has no dictionary entry yet (checksums may arrive before any session).
type FileChecksum struct {
	ChecksumID int64
	GameID     string
	GameName   string
	Checksum   string
	Algorithm  ChecksumAlgorithm
	ChunkSize  int64
	CreatedAt  string
	UpdatedAt  string
}

// ChecksumAlgorithm enumerates the digest algorithms accepted for game file
// checksums. Two edges alias their games only when both checksum and
// algorithm match.
type ChecksumAlgorithm string

const (
	SHA224   ChecksumAlgorithm = "SHA224"
	SHA256   ChecksumAlgorithm = "SHA256"
	SHA384   ChecksumAlgorithm = "SHA384"
	SHA512   ChecksumAlgorithm = "SHA512"
	SHA3_224 ChecksumAlgorithm = "SHA3_224"
	SHA3_256 ChecksumAlgorithm = "SHA3_256"
	SHA3_384 ChecksumAlgorithm = "SHA3_384"
	SHA3_512 ChecksumAlgorithm = "SHA3_512"
)

// ChecksumAlgorithms lists every supported algorithm.
var ChecksumAlgorithms = []ChecksumAlgorithm{
	SHA224, SHA256, SHA384, SHA512,
	SHA3_224, SHA3_256, SHA3_384, SHA3_512,
}

// ParseChecksumAlgorithm validates a caller-supplied algorithm name.
func ParseChecksumAlgorithm(s string) (ChecksumAlgorithm, error) {
	for _, a := range ChecksumAlgorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown checksum algorithm: %q", s)
}
