package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionMask_AdminImpliesAll(t *testing.T) {
	m := PermAdmin

	assert.True(t, m.Has(PermManageRecords))
	assert.True(t, m.Has(PermManageUsers))
	assert.True(t, m.Has(PermCanEdit))
	assert.True(t, m.Has(PermCanShare))
	assert.True(t, m.Has(PermAdmin))
}

func TestPermissionMask_NonAdminExactBits(t *testing.T) {
	m := PermCanEdit | PermCanShare

	assert.True(t, m.Has(PermCanEdit))
	assert.True(t, m.Has(PermCanShare))
	assert.False(t, m.Has(PermManageRecords))
	assert.False(t, m.Has(PermAdmin))
}

func TestPermissionMask_EffectiveIsMonotone(t *testing.T) {
	// Everything a lesser mask allows, the admin mask allows too.
	for _, p := range []PermissionMask{PermManageRecords, PermManageUsers, PermCanEdit, PermCanShare} {
		assert.True(t, PermAdmin.Effective().Has(p))
	}
}

func TestPermissionMask_ZeroHasNothing(t *testing.T) {
	var m PermissionMask
	assert.False(t, m.Has(PermCanEdit))
	assert.Zero(t, m.Effective())
}
