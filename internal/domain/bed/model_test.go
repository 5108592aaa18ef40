package bed

import (
	"testing"

	"github.com/bms/bms/internal/platform/apperr"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		to        Status
		hasActive bool
		wantKind  apperr.Kind
	}{
		{"available to maintenance", StatusAvailable, StatusMaintenance, false, ""},
		{"available to cleaning", StatusAvailable, StatusCleaning, false, ""},
		{"available to reserved", StatusAvailable, StatusReserved, false, ""},
		{"available to blocked", StatusAvailable, StatusBlocked, false, ""},
		{"cleaning to available", StatusCleaning, StatusAvailable, false, ""},
		{"maintenance to available", StatusMaintenance, StatusAvailable, false, ""},
		{"reserved to available", StatusReserved, StatusAvailable, false, ""},
		{"blocked to maintenance", StatusBlocked, StatusMaintenance, false, ""},
		{"occupied to cleaning after termination", StatusOccupied, StatusCleaning, false, ""},
		{"occupied to available after termination", StatusOccupied, StatusAvailable, false, ""},
		{"direct set to occupied", StatusAvailable, StatusOccupied, false, apperr.KindValidation},
		{"occupied set to occupied", StatusOccupied, StatusOccupied, true, apperr.KindValidation},
		{"leave occupied with active assignment", StatusOccupied, StatusCleaning, true, apperr.KindConflict},
		{"unknown status", StatusAvailable, Status("broken"), false, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.hasActive)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("expected transition to be allowed, got %v", err)
				}
				return
			}
			if !apperr.IsKind(err, tt.wantKind) {
				t.Fatalf("expected %s error, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusOccupied, StatusMaintenance, StatusCleaning, StatusReserved, StatusBlocked} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ValidStatus(Status("retired")) {
		t.Error("expected 'retired' to be invalid")
	}
}
