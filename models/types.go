package models

import "time"

// Poll status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Voting method constants
const (
	MethodCondorcet = "condorcet"
	MethodPlurality = "plurality"
)

// ValidMethod reports whether m is a supported voting method
func ValidMethod(m string) bool {
	return m == MethodCondorcet || m == MethodPlurality
}

// Request types

type CreatePollRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
	Method      string `json:"method,omitempty"` // defaults to condorcet
}

type AddCandidateRequest struct {
	Label string `json:"label"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Candidate IDs, most preferred first. Must rank every candidate once.
type SubmitBallotRequest struct {
	Ranking []string `json:"ranking"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type PublishPollResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	BallotID    string      `json:"ballot_id"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Ranking     []Candidate `json:"ranking"`
}

type ClosePollResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type PollPreviewResponse struct {
	Title          string `json:"title"`
	Status         string `json:"status"`
	Method         string `json:"method"`
	CandidateCount int    `json:"candidate_count"`
	BallotCount    int    `json:"ballot_count"`
}

type ResultsResponse struct {
	Poll        Poll           `json:"poll"`
	Snapshot    ResultSnapshot `json:"snapshot"`
	BallotCount int            `json:"ballot_count"`
}

// Domain types

type Poll struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Candidate struct {
	ID     string `json:"id"`
	PollID string `json:"poll_id"`
	Label  string `json:"label"`
}

type PollWithCandidates struct {
	Poll       Poll        `json:"poll"`
	Candidates []Candidate `json:"candidates"`
}

type Ballot struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

// Result types

type CandidateResult struct {
	CandidateID      string `json:"candidate_id"`
	Label            string `json:"label"`
	FirstPreferences int    `json:"first_preferences"`
	PairwiseWins     int    `json:"pairwise_wins"`
	Rank             int    `json:"rank"` // 1-indexed ranking
}

type PairwiseResult struct {
	CandidateA string `json:"candidate_a"`
	CandidateB string `json:"candidate_b"`
	VotesA     int    `json:"votes_a"`
	VotesB     int    `json:"votes_b"`
}

// Winner fields are nil when the rule has no decisive winner
type ResultSnapshot struct {
	ID              string            `json:"id"`
	PollID          string            `json:"poll_id"`
	Method          string            `json:"method"`
	ComputedAt      time.Time         `json:"computed_at"`
	Winner          *string           `json:"winner"`
	CondorcetWinner *string           `json:"condorcet_winner"`
	PluralityWinner *string           `json:"plurality_winner"`
	Candidates      []CandidateResult `json:"candidates"`
	Pairwise        []PairwiseResult  `json:"pairwise"`
	BallotCount     int               `json:"ballot_count"`
	InputsHash      string            `json:"inputs_hash"` // SHA-256 of sorted ballot IDs
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
