// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/danielhkuo/jamhub/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// judgedSubmission is one submission with the raw 0-1 scores its judges gave
type judgedSubmission struct {
	ID       string
	Title    string
	TeamName string
	Scores   []float64
}

// ComputeBMJRankings ranks every submission of an event by Balanced Majority
// Judgment over the judges' scores. The second result is a hash of the score
// inputs so a snapshot can be checked later.
func ComputeBMJRankings(db querier, eventID string) ([]models.SubmissionStats, string, error) {
	submissions, err := getJudgedSubmissions(db, eventID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get submissions: %w", err)
	}

	inputsHash, err := computeInputsHash(db, eventID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash scores: %w", err)
	}

	return rankSubmissions(submissions), inputsHash, nil
}

// rankSubmissions computes the BMJ statistics of each submission and orders
// them. Unjudged submissions score zero everywhere.
func rankSubmissions(submissions []judgedSubmission) []models.SubmissionStats {
	stats := make([]models.SubmissionStats, 0, len(submissions))
	for _, sub := range submissions {
		// signed score: s = 2*value01 - 1
		signed := make([]float64, len(sub.Scores))
		for i, v := range sub.Scores {
			signed[i] = 2.0*v - 1.0
		}
		sort.Float64s(signed)

		stat := models.SubmissionStats{
			SubmissionID: sub.ID,
			Title:        sub.Title,
			TeamName:     sub.TeamName,
			Median:       percentile(signed, 0.5),
			P10:          percentile(signed, 0.1),
			P90:          percentile(signed, 0.9),
			Mean:         mean(signed),
			NegShare:     negativeShare(signed),
		}

		// soft veto
		stat.Veto = stat.NegShare >= 0.33 && stat.Median <= 0

		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]

		if a.Veto != b.Veto {
			return !a.Veto
		}
		if a.Median != b.Median {
			return a.Median > b.Median
		}
		// least misery first, then upside
		if a.P10 != b.P10 {
			return a.P10 > b.P10
		}
		if a.P90 != b.P90 {
			return a.P90 > b.P90
		}
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.SubmissionID < b.SubmissionID
	})

	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}

// getJudgedSubmissions loads submissions with their team names and scores
func getJudgedSubmissions(db querier, eventID string) ([]judgedSubmission, error) {
	rows, err := db.Query(`
		SELECT s.id, s.title, t.name, js.value01
		FROM submission s
		JOIN team t ON t.id = s.team_id
		LEFT JOIN judge_score js ON js.submission_id = s.id
		WHERE s.event_id = $1
		ORDER BY s.id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []judgedSubmission
	for rows.Next() {
		var id, title, teamName string
		var value sql.NullFloat64
		if err := rows.Scan(&id, &title, &teamName, &value); err != nil {
			return nil, err
		}

		if n := len(submissions); n == 0 || submissions[n-1].ID != id {
			submissions = append(submissions, judgedSubmission{ID: id, Title: title, TeamName: teamName})
		}
		if value.Valid {
			last := &submissions[len(submissions)-1]
			last.Scores = append(last.Scores, value.Float64)
		}
	}

	return submissions, rows.Err()
}

// percentile calculates the p-th percentile of sorted data
// p should be in range [0, 1]
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// linear interpolation between closest ranks
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// negativeShare is the fraction of strictly negative signed scores
func negativeShare(signed []float64) float64 {
	if len(signed) == 0 {
		return 0.0
	}

	neg := 0
	for _, s := range signed {
		if s < 0 {
			neg++
		}
	}
	return float64(neg) / float64(len(signed))
}

// computeInputsHash digests every score of the event in a stable order
func computeInputsHash(db querier, eventID string) (string, error) {
	rows, err := db.Query(`
		SELECT judge_token, submission_id, value01
		FROM judge_score
		WHERE event_id = $1
		ORDER BY judge_token, submission_id
	`, eventID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	h := sha256.New()
	for rows.Next() {
		var judge, submission string
		var value float64
		if err := rows.Scan(&judge, &submission, &value); err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s|%s|%.6f\n", judge, submission, value)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
