package models

import (
	"errors"
	"fmt"
)

var (
	ErrNestedSubtract = errors.New("subtract config cannot have its own subtract config")
	ErrNotNumeric     = errors.New("sum column is not numeric")
)

// AccountFilterConfig decides which rows belong to an account and which
// column is summed for them. Subtract, when active, describes a second pass
// whose total is taken off the first.
type AccountFilterConfig struct {
	FilterColumn Column               `json:"filterColumn"`
	FilterValue  string               `json:"filterValue,omitempty"`
	SumColumn    Column               `json:"sumColumn"`
	Subtract     *AccountFilterConfig `json:"subtract,omitempty"`
}

// SubtractActive is true only when a subtract config exists and names a
// filter value.
func (c AccountFilterConfig) SubtractActive() bool {
	return c.Subtract != nil && c.Subtract.FilterValue != ""
}

func (c AccountFilterConfig) Validate() error {
	if err := c.validateLevel(); err != nil {
		return err
	}
	if c.Subtract == nil {
		return nil
	}
	if c.Subtract.Subtract != nil {
		return ErrNestedSubtract
	}
	if err := c.Subtract.validateLevel(); err != nil {
		return fmt.Errorf("subtract: %w", err)
	}
	return nil
}

func (c AccountFilterConfig) validateLevel() error {
	if !c.FilterColumn.Valid() {
		return fmt.Errorf("filter %w: %s", ErrUnknownColumn, c.FilterColumn)
	}
	if !c.SumColumn.Valid() {
		return fmt.Errorf("sum %w: %s", ErrUnknownColumn, c.SumColumn)
	}
	if !c.SumColumn.Numeric() {
		return fmt.Errorf("%w: %s", ErrNotNumeric, c.SumColumn)
	}
	return nil
}

// Clone returns a deep copy.
func (c AccountFilterConfig) Clone() AccountFilterConfig {
	out := c
	if c.Subtract != nil {
		sub := *c.Subtract
		out.Subtract = &sub
	}
	return out
}
