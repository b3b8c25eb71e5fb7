package discovery

import (
	"testing"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
)

func TestDeriveEntity(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		subTypeValue string
		unitCode     string
		group        bool
		conf         *config.DeviceConfig
		want         Entity
	}{
		{
			name: "device level",
			id:   "0x011B22", subTypeValue: "AC",
			want: Entity{ID: "AC_011B22", Name: "0x011B22", Topic: "0x011B22"},
		},
		{
			name: "unit scoped",
			id:   "0x011B22", subTypeValue: "AC", unitCode: "2",
			want: Entity{ID: "AC_011B22_2", Name: "0x011B22_2", Topic: "0x011B22/2"},
		},
		{
			name: "group command",
			id:   "0x011B22", subTypeValue: "AC", unitCode: "2", group: true,
			want: Entity{ID: "AC_011B22_group", Name: "0x011B22_group", Topic: "0x011B22"},
		},
		{
			name: "no hex prefix",
			id:   "temphum_device", subTypeValue: "TH2",
			want: Entity{ID: "TH2_temphum_device", Name: "temphum_device", Topic: "temphum_device"},
		},
		{
			name: "device name override",
			id:   "0x011B22", subTypeValue: "AC", unitCode: "1",
			conf: &config.DeviceConfig{ID: "0x011B22", Name: "living_room"},
			want: Entity{ID: "AC_011B22_1", Name: "0x011B22_1", Topic: "living_room/1"},
		},
		{
			name: "unit name override",
			id:   "0x011B22", subTypeValue: "AC", unitCode: "1",
			conf: &config.DeviceConfig{
				ID:    "0x011B22",
				Name:  "living_room",
				Units: []config.UnitConfig{{UnitCode: 1, Name: "ceiling"}},
			},
			want: Entity{ID: "AC_011B22_1", Name: "0x011B22_1", Topic: "ceiling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveEntity(tt.id, tt.subTypeValue, tt.unitCode, tt.group, tt.conf)
			if got != tt.want {
				t.Errorf("DeriveEntity() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveEntityIsDeterministic(t *testing.T) {
	a := DeriveEntity("0x011B22", "AC", "2", false, nil)
	b := DeriveEntity("0x011B22", "AC", "2", false, nil)
	if a != b {
		t.Errorf("derivation not deterministic: %+v vs %+v", a, b)
	}
}

func TestDeriveEntityGroupNeverCollidesWithUnit(t *testing.T) {
	unit := DeriveEntity("0x011B22", "AC", "2", false, nil)
	group := DeriveEntity("0x011B22", "AC", "2", true, nil)
	if unit.ID == group.ID {
		t.Errorf("group and unit entity ids collide: %q", unit.ID)
	}
}
