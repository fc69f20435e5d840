// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package keychain

import (
	"crypto/rsa"
	"sync"
)

// KeyContext is the set of keys a vault session currently holds: the
// account data key, the account RSA private key, and every team and
// shared-folder key unwrapped so far. Grants add keys; object decryption
// only reads, so independent objects can be decrypted concurrently against
// the same context.
type KeyContext struct {
	mu         sync.RWMutex
	dataKey    []byte
	privateKey *rsa.PrivateKey
	teamKeys   map[string][]byte
	folderKeys map[string][]byte
}

// NewKeyContext builds a context holding only the account-level keys.
// privateKey may be nil when no asymmetric grants are expected.
func NewKeyContext(dataKey []byte, privateKey *rsa.PrivateKey) *KeyContext {
	return &KeyContext{
		dataKey:    dataKey,
		privateKey: privateKey,
		teamKeys:   make(map[string][]byte),
		folderKeys: make(map[string][]byte),
	}
}

// DataKey returns the account data key.
func (c *KeyContext) DataKey() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dataKey
}

// PrivateKey returns the account RSA private key, or nil.
func (c *KeyContext) PrivateKey() *rsa.PrivateKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.privateKey
}

// TeamKey returns the unwrapped key of the given team, if held.
func (c *KeyContext) TeamKey(teamUID string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.teamKeys[teamUID]
	return key, ok
}

// SharedFolderKey returns the unwrapped key of the given folder, if held.
func (c *KeyContext) SharedFolderKey(folderUID string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.folderKeys[folderUID]
	return key, ok
}

func (c *KeyContext) putTeamKey(teamUID string, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teamKeys[teamUID] = key
}

func (c *KeyContext) putFolderKey(folderUID string, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folderKeys[folderUID] = key
}

func (c *KeyContext) dropTeamKey(teamUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.teamKeys, teamUID)
}

func (c *KeyContext) dropFolderKey(folderUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.folderKeys, folderUID)
}
