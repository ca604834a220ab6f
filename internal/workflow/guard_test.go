package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
)

func testWorkflow(name string, statuses ...string) *models.Workflow {
	return &models.Workflow{WorkflowID: uuid.New(), OrgID: uuid.New(), Name: name, Statuses: statuses}
}

func testTicket(status string) *models.Ticket {
	return &models.Ticket{TicketID: uuid.New(), Status: status}
}

func TestValidateStatuses(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		wantErr  bool
	}{
		{name: "default statuses", statuses: DefaultStatuses},
		{name: "digits dashes underscores", statuses: []string{"STAGE-1", "STAGE_2", "3"}},
		{name: "empty", statuses: []string{}, wantErr: true},
		{name: "nil", statuses: nil, wantErr: true},
		{name: "lower case", statuses: []string{"todo"}, wantErr: true},
		{name: "space", statuses: []string{"IN PROGRESS"}, wantErr: true},
		{name: "empty string", statuses: []string{"TODO", ""}, wantErr: true},
		{name: "duplicate", statuses: []string{"TODO", "DONE", "TODO"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatuses(tt.statuses)
			if tt.wantErr {
				require.ErrorIs(t, err, apperr.ValidationFailed)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolveInitialStatus(t *testing.T) {
	wf := testWorkflow("default", DefaultStatuses...)

	status, err := ResolveInitialStatus(wf, "")
	require.NoError(t, err)
	require.Equal(t, "TODO", status)

	status, err = ResolveInitialStatus(wf, "DONE")
	require.NoError(t, err)
	require.Equal(t, "DONE", status)

	_, err = ResolveInitialStatus(wf, "BLOCKED")
	require.ErrorIs(t, err, apperr.ValidationFailed)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, []string{"TODO", "IN_PROGRESS", "DONE"}, appErr.Details.ValidStatuses)
}

func TestValidateStatusIsCaseSensitive(t *testing.T) {
	wf := testWorkflow("default", DefaultStatuses...)

	o := ValidateStatus(wf, "todo")
	require.True(t, o.Rejected)
	require.Equal(t, apperr.KindValidationFailed, o.Kind)
	require.False(t, ValidateStatus(wf, "TODO").Rejected)
}

func TestCheckStatusRemoval(t *testing.T) {
	wf := testWorkflow("review", "CODE_REVIEW", "QA", "DEPLOYED")

	qa := testTicket("QA")
	review := testTicket("CODE_REVIEW")
	deployed := testTicket("DEPLOYED")

	tests := []struct {
		name     string
		next     []string
		tickets  []*models.Ticket
		rejected bool
		blocked  []string
		affected []uuid.UUID
	}{
		{name: "adding statuses", next: []string{"CODE_REVIEW", "QA", "DEPLOYED", "VERIFIED"}, tickets: []*models.Ticket{qa}},
		{name: "reordering statuses", next: []string{"QA", "CODE_REVIEW", "DEPLOYED"}, tickets: []*models.Ticket{qa}},
		{name: "removing unused status", next: []string{"CODE_REVIEW", "QA"}, tickets: []*models.Ticket{qa, review}},
		{name: "removing status with no tickets", next: []string{"CODE_REVIEW"}},
		{
			name:     "removing used status",
			next:     []string{"CODE_REVIEW", "DEPLOYED"},
			tickets:  []*models.Ticket{qa, review},
			rejected: true,
			blocked:  []string{"QA"},
			affected: []uuid.UUID{qa.TicketID},
		},
		{
			name:     "removing several used statuses",
			next:     []string{"QA"},
			tickets:  []*models.Ticket{deployed, qa, review},
			rejected: true,
			blocked:  []string{"CODE_REVIEW", "DEPLOYED"},
			affected: []uuid.UUID{deployed.TicketID, review.TicketID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := CheckStatusRemoval(wf, tt.next, tt.tickets)
			require.Equal(t, tt.rejected, o.Rejected)
			if !tt.rejected {
				require.NoError(t, o.Err())
				return
			}
			require.Equal(t, apperr.KindIntegrityConflict, o.Kind)
			require.Equal(t, tt.blocked, o.BlockedStatuses)
			require.Equal(t, len(tt.affected), o.AffectedCount)
			require.ElementsMatch(t, tt.affected, o.AffectedTickets)
			require.ErrorIs(t, o.Err(), apperr.IntegrityConflict)
		})
	}
}

func TestCheckReassignment(t *testing.T) {
	target := testWorkflow("default", DefaultStatuses...)

	todo := testTicket("TODO")
	qa := testTicket("QA")

	o := CheckReassignment([]*models.Ticket{todo}, target)
	require.False(t, o.Rejected)

	o = CheckReassignment(nil, target)
	require.False(t, o.Rejected)

	o = CheckReassignment([]*models.Ticket{todo, qa}, target)
	require.True(t, o.Rejected)
	require.Equal(t, apperr.KindIntegrityConflict, o.Kind)
	require.Equal(t, []uuid.UUID{qa.TicketID}, o.IncompatibleTickets)
	require.Equal(t, DefaultStatuses, o.ValidStatuses)
}

func TestCheckMove(t *testing.T) {
	defaultWF := testWorkflow("default", DefaultStatuses...)
	review := testWorkflow("review", "CODE_REVIEW", "QA", "DEPLOYED")
	mixed := testWorkflow("mixed", "TODO", "QA")

	tests := []struct {
		name     string
		status   string
		source   *models.Workflow
		target   *models.Workflow
		rejected bool
	}{
		{name: "same workflow", status: "QA", source: review, target: review},
		{name: "different workflow compatible status", status: "QA", source: review, target: mixed},
		{name: "different workflow incompatible status", status: "QA", source: review, target: defaultWF, rejected: true},
		{name: "default to custom incompatible", status: "IN_PROGRESS", source: defaultWF, target: mixed, rejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := testTicket(tt.status)
			o := CheckMove(ticket, tt.source, tt.target)
			require.Equal(t, tt.rejected, o.Rejected)
			if tt.rejected {
				require.Equal(t, tt.target.Statuses, o.ValidStatuses)
				require.Equal(t, MoveHint, o.Hint)

				appErr, ok := apperr.As(o.Err())
				require.True(t, ok)
				require.Equal(t, tt.target.Statuses, appErr.Details.ValidStatuses)
			}
		})
	}
}
