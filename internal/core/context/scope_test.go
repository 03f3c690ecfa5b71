package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPlanScope_Merges(t *testing.T) {
	assert.Nil(t, GetPlanScope(context.Background()))

	ctx := WithPlanScope(context.Background(), PlanScope{BranchID: "b-1", PlanDate: "2026-03-10"})
	ctx = WithPlanScope(ctx, PlanScope{PlanID: "p-1"})

	scope := GetPlanScope(ctx)
	require.NotNil(t, scope)
	assert.Equal(t, PlanScope{BranchID: "b-1", PlanDate: "2026-03-10", PlanID: "p-1"}, *scope)

	ctx = WithPlanScope(ctx, PlanScope{BranchID: "b-2"})
	assert.Equal(t, "b-2", GetPlanScope(ctx).BranchID)
	assert.Equal(t, "p-1", GetPlanScope(ctx).PlanID)
}
