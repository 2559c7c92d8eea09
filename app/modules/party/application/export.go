package partyservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	leaderboardSheet = "Leaderboard"
	activitySheet    = "Activity"
)

var (
	leaderboardHeader = []any{"Rank", "Member", "Points", "Streak", "Tied", "Joined"}
	activityHeader    = []any{"When", "Member", "Kind", "Points", "Company", "Role", "Label"}
)

// ExportLeaderboard renders the party leaderboard and the most recent page
// of its feed as an xlsx workbook.
func (s *PartyService) ExportLeaderboard(ctx context.Context, userID string, partyID uuid.UUID) (*Export, error) {
	result, err := withTelemetry(s, ctx, "ExportLeaderboard", partyID.String(), func(ctx context.Context) (results.OperationResult[*Export, error], error) {
		if err := s.requireMember(ctx, userID, partyID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return results.FailureResult[*Export](err), nil
			}
			return results.OperationResult[*Export, error]{}, err
		}

		party, err := s.repo.GetParty(ctx, nil, partyID)
		if err != nil {
			return results.OperationResult[*Export, error]{}, err
		}
		entries, err := s.leaderboard(ctx, partyID)
		if err != nil {
			return results.OperationResult[*Export, error]{}, err
		}
		feed, err := s.repo.ListActivity(ctx, nil, partyID, partydomain.MaxFeedLimit, nil)
		if err != nil {
			return results.OperationResult[*Export, error]{}, err
		}

		content, err := renderWorkbook(entries, feed)
		if err != nil {
			return results.OperationResult[*Export, error]{}, err
		}
		return results.SuccessResult[*Export, error](&Export{
			Filename: fmt.Sprintf("%s-leaderboard-%s.xlsx", party.InviteCode, s.now().Format("20060102")),
			Content:  content,
		}), nil
	})
	return unwrap(result, err)
}

func renderWorkbook(entries []partydomain.LeaderboardEntry, feed []partydb.Activity) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), leaderboardSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(activitySheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	rows := make([][]any, 0, len(entries)+1)
	rows = append(rows, leaderboardHeader)
	for _, e := range entries {
		rows = append(rows, []any{e.Rank, e.DisplayName, e.TotalPoints, e.CurrentStreak, e.Tied, e.JoinedAt.Format("2006-01-02")})
	}
	if err := writeRows(f, leaderboardSheet, rows, bold); err != nil {
		return nil, err
	}

	rows = rows[:0]
	rows = append(rows, activityHeader)
	for _, a := range feed {
		rows = append(rows, []any{a.CreatedAt.Format("2006-01-02 15:04"), a.DisplayName, string(a.Kind), a.PointsDelta, a.Company, a.Role, a.Label})
	}
	if err := writeRows(f, activitySheet, rows, bold); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, idx+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "B", "B", 24)
}
