package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		raw      string
		wantArea string
		wantUnit SizeUnit
		wantErr  bool
	}{
		{"3平方尺", "3", UnitSquareChi, false},
		{" 1.5 平方尺 ", "1.5", UnitSquareChi, false},
		{"约2平方米", "18", UnitSquareMetre, false},
		{"4", "4", UnitSquareChi, false},
		{"", "", "", true},
		{"大幅", "", "", true},
		{"0平方尺", "", "", true},
		{"3平方寸", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			size, err := ParseSize(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSize) {
					t.Errorf("ParseSize(%q) 期望 ErrInvalidSize, 实际 %v", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) error = %v", tt.raw, err)
			}
			if size.Unit != tt.wantUnit {
				t.Errorf("单位 = %s, want %s", size.Unit, tt.wantUnit)
			}
			if !size.Area().Equal(decimal.RequireFromString(tt.wantArea)) {
				t.Errorf("面积 = %s, want %s", size.Area(), tt.wantArea)
			}
		})
	}
}

func TestMembershipEndDate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := map[MembershipType]time.Time{
		MembershipTrial:   start.AddDate(0, 0, 7),
		MembershipMonthly: start.AddDate(0, 1, 0),
		MembershipYearly:  start.AddDate(1, 0, 0),
	}
	for m, want := range cases {
		got, err := m.EndDate(start)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %v, want %v", m, got, want)
		}
	}

	if _, err := MembershipType("forever").EndDate(start); !errors.Is(err, ErrInvalidMembership) {
		t.Errorf("期望 ErrInvalidMembership, 实际 %v", err)
	}
}

func TestArtworkSaleState(t *testing.T) {
	a := &Artwork{}
	at := time.Now()
	a.MarkSold(decimal.NewFromInt(300), at)
	if !a.IsSold || !a.SalePrice.Valid || a.SaleDate == nil {
		t.Fatalf("MarkSold 后状态不正确: %+v", a)
	}
	a.MarkUnsold()
	if a.IsSold || a.SalePrice.Valid || a.SaleDate != nil {
		t.Fatalf("MarkUnsold 后状态不正确: %+v", a)
	}
}

func TestArtistAffiliation(t *testing.T) {
	a := &Artist{}
	if a.IsAffiliated() {
		t.Error("未签约画家 IsAffiliated 应为 false")
	}
	id := int64(3)
	a.CompanyID = &id
	if !a.AffiliatedWith(3) || a.AffiliatedWith(4) {
		t.Error("AffiliatedWith 判断错误")
	}
}
