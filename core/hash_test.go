package core

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/peterldowns/testy/check"
)

func checkHexHash(t *testing.T, hash string) {
	t.Helper()
	check.Equal(t, 64, len(hash))
	for _, c := range hash {
		check.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestComputeBidHash(t *testing.T) {
	bidderID := "P1"
	quantity := 6.0
	price := 250.0
	nonce := "test_nonce_456"

	hash := ComputeBidHash(bidderID, quantity, price, nonce)
	checkHexHash(t, hash)

	// Same inputs should produce same hash (deterministic)
	check.Equal(t, hash, ComputeBidHash(bidderID, quantity, price, nonce))

	// Verify exact hash calculation
	expectedData := fmt.Sprintf("%s|%.6f|%.6f|%s", bidderID, quantity, price, nonce)
	expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte(expectedData)))
	check.Equal(t, expectedHash, hash)
}

func TestComputeBidHash_DifferentInputs(t *testing.T) {
	nonce := "test-nonce"
	base := ComputeBidHash("P1", 6, 250, nonce)

	check.NotEqual(t, base, ComputeBidHash("P2", 6, 250, nonce))
	check.NotEqual(t, base, ComputeBidHash("P1", 5, 250, nonce))
	check.NotEqual(t, base, ComputeBidHash("P1", 6, 250.000001, nonce))
	check.NotEqual(t, base, ComputeBidHash("P1", 6, 250, "other-nonce"))

	// Same to 6 decimal places
	check.Equal(t, base, ComputeBidHash("P1", 6.0000000001, 250, nonce))
}

func TestComputeRoundHash(t *testing.T) {
	hash := ComputeRoundHash("session-1", 3, "nonce")
	checkHexHash(t, hash)

	check.Equal(t, hash, ComputeRoundHash("session-1", 3, "nonce"))
	check.NotEqual(t, hash, ComputeRoundHash("session-1", 4, "nonce"))
	check.NotEqual(t, hash, ComputeRoundHash("session-2", 3, "nonce"))

	expected := fmt.Sprintf("%x", sha256.Sum256([]byte("session-1|3|nonce")))
	check.Equal(t, expected, hash)
}

func TestComputeAllocationsHash_OrderIndependent(t *testing.T) {
	a := []Allocation{
		{BidderID: "P2", PricePaid: 150, Quantity: 4},
		{BidderID: "P1", PricePaid: 150, Quantity: 6},
	}
	b := []Allocation{
		{BidderID: "P1", PricePaid: 150, Quantity: 6},
		{BidderID: "P2", PricePaid: 150, Quantity: 4},
	}

	hashA := ComputeAllocationsHash(a, "nonce")
	checkHexHash(t, hashA)
	check.Equal(t, hashA, ComputeAllocationsHash(b, "nonce"))

	// Input order preserved
	check.Equal(t, "P2", a[0].BidderID)

	expectedData := "nonce|P1:6.000000@150.000000|P2:4.000000@150.000000"
	check.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(expectedData))), hashA)
}

func TestComputeAllocationsHash_Empty(t *testing.T) {
	expected := fmt.Sprintf("%x", sha256.Sum256([]byte("nonce")))
	check.Equal(t, expected, ComputeAllocationsHash(nil, "nonce"))
}
