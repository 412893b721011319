package scheduling

import (
	"context"
	"fmt"
	"math"
	"time"

	"servana/models"
)

const defaultPartialRefundPercentage = 50

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateRefund evaluates the policy's refund tiers for a
// cancellation happening at now. The tiers apply in fixed precedence:
// full refund window, partial refund window, no-refund window, past
// appointments, then a fallback to a full refund when no tier matched.
// The fallback is deliberate: an incompletely configured policy must
// not silently deny a refund.
func CalculateRefund(policy models.CancellationPolicy, appointmentTime time.Time, paidAmount float64, now time.Time) models.RefundAssessment {
	remaining := appointmentTime.Sub(now)

	if policy.FullRefundHours > 0 && remaining >= time.Duration(policy.FullRefundHours)*time.Hour {
		return models.RefundAssessment{
			Eligible:   true,
			Percentage: 100,
			Amount:     roundCents(paidAmount),
			Reason:     "cancelled within the full refund window",
		}
	}

	if policy.PartialRefundHours > 0 && remaining >= time.Duration(policy.PartialRefundHours)*time.Hour {
		pct := policy.PartialRefundPercentage
		if pct == 0 {
			pct = defaultPartialRefundPercentage
		}
		return models.RefundAssessment{
			Eligible:   true,
			Percentage: pct,
			Amount:     roundCents(paidAmount * float64(pct) / 100),
			Reason:     "cancelled within the partial refund window",
		}
	}

	if policy.NoRefundHours > 0 && remaining > 0 && remaining < time.Duration(policy.NoRefundHours)*time.Hour {
		return models.RefundAssessment{
			Percentage: 0,
			Amount:     0,
			Reason:     "cancelled within the no-refund window",
		}
	}

	if remaining <= 0 {
		return models.RefundAssessment{
			Percentage: 0,
			Amount:     0,
			Reason:     "appointment has already passed",
		}
	}

	return models.RefundAssessment{
		Eligible:   true,
		Percentage: 100,
		Amount:     roundCents(paidAmount),
		Reason:     "no cancellation window defined",
	}
}

// SetCancellationPolicy validates and stores the refund tiers and
// rescheduling rules for a service category.
func (se *DefaultSchedulingEngine) SetCancellationPolicy(ctx context.Context, policy models.CancellationPolicy) (*models.CancellationPolicy, error) {
	if policy.Category == "" {
		return nil, NewError(CodeValidation, "policy is missing a category")
	}
	if policy.FullRefundHours < 0 || policy.PartialRefundHours < 0 || policy.NoRefundHours < 0 || policy.RescheduleMinHours < 0 {
		return nil, NewError(CodeValidation, "policy windows cannot be negative")
	}
	if policy.PartialRefundPercentage < 0 || policy.PartialRefundPercentage > 100 {
		return nil, NewError(CodeValidation, "partial refund percentage must be between 0 and 100")
	}
	if policy.FullRefundHours > 0 && policy.PartialRefundHours > policy.FullRefundHours {
		return nil, NewError(CodeValidation, "the partial refund window cannot extend past the full refund window")
	}
	if policy.MaxReschedules < 0 {
		return nil, NewError(CodeValidation, "maximum reschedules cannot be negative")
	}
	if err := se.Policies.Upsert(ctx, &policy); err != nil {
		return nil, fmt.Errorf("failed to store cancellation policy: %w", err)
	}
	return &policy, nil
}

// CheckRescheduleEligibility decides whether a booking may be moved to
// a new time under the policy.
func CheckRescheduleEligibility(policy models.CancellationPolicy, appointmentTime time.Time, currentCount int, now time.Time) models.RescheduleAssessment {
	if !policy.AllowRescheduling {
		return models.RescheduleAssessment{Reason: "this service does not allow rescheduling"}
	}
	if currentCount >= policy.MaxReschedules {
		return models.RescheduleAssessment{Reason: "maximum number of reschedules reached"}
	}
	remaining := appointmentTime.Sub(now)
	if remaining <= 0 {
		return models.RescheduleAssessment{Reason: "appointment has already passed"}
	}
	if remaining < time.Duration(policy.RescheduleMinHours)*time.Hour {
		return models.RescheduleAssessment{Reason: "too close to the appointment to reschedule"}
	}
	return models.RescheduleAssessment{Eligible: true}
}
