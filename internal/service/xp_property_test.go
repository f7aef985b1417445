// Property-based tests for the XP economy rules.
package service

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// GiveResult represents the outcome of a gift for testing.
type GiveResult struct {
	SenderAfter   int64
	ReceiverAfter int64
	Error         error
}

// simulateGive mirrors the validation and execution logic of XPService.Give
// without database dependencies.
func simulateGive(senderBalance, receiverBalance, amount, senderID, receiverID int64) GiveResult {
	result := GiveResult{
		SenderAfter:   senderBalance,
		ReceiverAfter: receiverBalance,
	}

	if amount <= 0 {
		result.Error = ErrInvalidAmount
		return result
	}
	if senderID == receiverID {
		result.Error = ErrSelfTransfer
		return result
	}
	if senderBalance < amount {
		result.Error = ErrInsufficientBalance
		return result
	}

	result.SenderAfter = senderBalance - amount
	result.ReceiverAfter = receiverBalance + amount
	return result
}

// TestGiveConservationProperty: a successful gift moves exactly the amount
// and conserves total XP.
func TestGiveConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		senderBalance := rapid.Int64Range(1, 1000000).Draw(t, "senderBalance")
		receiverBalance := rapid.Int64Range(0, 1000000).Draw(t, "receiverBalance")
		amount := rapid.Int64Range(1, senderBalance).Draw(t, "amount")
		senderID := rapid.Int64Range(1, 1000000).Draw(t, "senderID")
		receiverID := rapid.Int64Range(1, 1000000).Filter(func(id int64) bool {
			return id != senderID
		}).Draw(t, "receiverID")

		result := simulateGive(senderBalance, receiverBalance, amount, senderID, receiverID)

		if result.Error != nil {
			t.Fatalf("Gift should succeed with valid inputs: balance=%d, amount=%d, error=%v",
				senderBalance, amount, result.Error)
		}
		if result.SenderAfter != senderBalance-amount {
			t.Fatalf("Sender balance mismatch: expected %d, got %d",
				senderBalance-amount, result.SenderAfter)
		}
		if result.ReceiverAfter != receiverBalance+amount {
			t.Fatalf("Receiver balance mismatch: expected %d, got %d",
				receiverBalance+amount, result.ReceiverAfter)
		}
		if result.SenderAfter+result.ReceiverAfter != senderBalance+receiverBalance {
			t.Fatalf("Total XP not conserved: before=%d, after=%d",
				senderBalance+receiverBalance, result.SenderAfter+result.ReceiverAfter)
		}
	})
}

// TestGiveValidationProperty: invalid amount, self-gift and insufficient
// balance all fail without mutating either side, in that priority order.
func TestGiveValidationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		senderBalance := rapid.Int64Range(0, 1000000).Draw(t, "senderBalance")
		receiverBalance := rapid.Int64Range(0, 1000000).Draw(t, "receiverBalance")
		amount := rapid.Int64Range(-100, 1000100).Draw(t, "amount")
		senderID := rapid.Int64Range(1, 1000000).Draw(t, "senderID")
		receiverID := rapid.Int64Range(1, 1000000).Draw(t, "receiverID")

		result := simulateGive(senderBalance, receiverBalance, amount, senderID, receiverID)

		var expected error
		switch {
		case amount <= 0:
			expected = ErrInvalidAmount
		case senderID == receiverID:
			expected = ErrSelfTransfer
		case senderBalance < amount:
			expected = ErrInsufficientBalance
		}

		if expected == nil {
			if result.Error != nil {
				t.Fatalf("Expected success, got %v", result.Error)
			}
			return
		}

		if !errors.Is(result.Error, expected) {
			t.Fatalf("Expected %v, got %v (amount=%d, senderID=%d, receiverID=%d, balance=%d)",
				expected, result.Error, amount, senderID, receiverID, senderBalance)
		}
		if result.SenderAfter != senderBalance || result.ReceiverAfter != receiverBalance {
			t.Fatalf("Failed gift must not change balances: sender %d->%d, receiver %d->%d",
				senderBalance, result.SenderAfter, receiverBalance, result.ReceiverAfter)
		}
	})
}

// TestBoundDeltaProperty: a planned deduction or theft never exceeds the
// balance it is taken from and is never negative, so balances stay >= 0.
func TestBoundDeltaProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(-100, 1000000).Draw(t, "amount")
		balance := rapid.Int64Range(-100, 1000000).Draw(t, "balance")

		bounded := boundDelta(amount, balance)

		if bounded < 0 {
			t.Fatalf("Bounded amount is negative: %d", bounded)
		}
		if balance >= 0 && bounded > balance {
			t.Fatalf("Bounded amount %d exceeds balance %d", bounded, balance)
		}
		if balance >= 0 && amount >= 0 && amount <= balance && bounded != amount {
			t.Fatalf("Amount within balance must pass through unchanged: amount=%d, got %d",
				amount, bounded)
		}
		if balance >= 0 && balance-bounded < 0 {
			t.Fatalf("Applying bounded amount %d drives balance %d negative", bounded, balance)
		}
	})
}
