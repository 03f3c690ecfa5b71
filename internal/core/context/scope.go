package context

import "context"

// PlanScope names the branch, day and plan an operation works on.
// Empty fields are unknown.
type PlanScope struct {
	BranchID string
	PlanDate string
	PlanID   string
}

type planScopeKey struct{}

// WithPlanScope merges scope into any scope already in ctx. Non-empty fields win.
func WithPlanScope(ctx context.Context, scope PlanScope) context.Context {
	if prev := GetPlanScope(ctx); prev != nil {
		if scope.BranchID == "" {
			scope.BranchID = prev.BranchID
		}
		if scope.PlanDate == "" {
			scope.PlanDate = prev.PlanDate
		}
		if scope.PlanID == "" {
			scope.PlanID = prev.PlanID
		}
	}
	return context.WithValue(ctx, planScopeKey{}, &scope)
}

// GetPlanScope returns the scope from ctx or nil.
func GetPlanScope(ctx context.Context) *PlanScope {
	if v, ok := ctx.Value(planScopeKey{}).(*PlanScope); ok {
		return v
	}
	return nil
}
