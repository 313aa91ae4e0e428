package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScheduleFile is the YAML document describing the phased emission table and
// the initial vesting grants. Amounts are decimal strings so full-precision
// integers survive the trip through YAML.
type ScheduleFile struct {
	Farming FarmingSchedule `yaml:"farming"`
	Grants  []GrantSpec     `yaml:"grants"`
}

type FarmingSchedule struct {
	StartBlock uint64      `yaml:"start_block"`
	Reserved   string      `yaml:"reserved"`
	Phases     []PhaseSpec `yaml:"phases"`
}

type PhaseSpec struct {
	StakingRate string `yaml:"staking_rate"`
	OtherRate   string `yaml:"other_rate"`
	Blocks      uint64 `yaml:"blocks"`
}

type GrantSpec struct {
	ID          string `yaml:"id"`
	Beneficiary string `yaml:"beneficiary"`
	Start       uint64 `yaml:"start"`
	Cliff       uint64 `yaml:"cliff"`
	Duration    uint64 `yaml:"duration"`
	Revocable   bool   `yaml:"revocable"`
}

// LoadSchedule parses the schedule document at path.
func LoadSchedule(path string) (*ScheduleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sched := &ScheduleFile{}
	if err := yaml.Unmarshal(raw, sched); err != nil {
		return nil, fmt.Errorf("config: parse schedule %s: %w", path, err)
	}
	return sched, nil
}

// ParseAmount decodes a decimal string into a non-negative big integer.
func ParseAmount(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("config: invalid amount %q", raw)
	}
	return value, nil
}

// ReservedAmount decodes the total reserved for the farming schedule.
func (f *FarmingSchedule) ReservedAmount() (*big.Int, error) {
	return ParseAmount(f.Reserved)
}
