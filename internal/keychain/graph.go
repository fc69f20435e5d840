package keychain

import (
	"fmt"

	"github.com/MKhiriev/go-vault-sync/models"
)

// KeyGraph is the explicit DAG of key-wrap relationships: an edge from
// holder to target means the target's key is wrapped under the holder's
// key. The hierarchy account → team → shared folder → record must stay
// acyclic; a cycle would make every key on it unresolvable, so it is
// rejected at construction time instead of looping at lookup time.
type KeyGraph struct {
	edges map[string][]string
}

// Well-known node identifiers.
const (
	// NodeAccount is the root holder: the account data key.
	NodeAccount = "account"
)

// TeamNode returns the graph node id of a team key.
func TeamNode(uid string) string { return "team:" + uid }

// FolderNode returns the graph node id of a shared-folder key.
func FolderNode(uid string) string { return "folder:" + uid }

// NewKeyGraph returns an empty key graph.
func NewKeyGraph() *KeyGraph {
	return &KeyGraph{edges: make(map[string][]string)}
}

// AddEdge records that target's key is wrapped under holder's key.
// If the new edge would close a cycle the graph is left unchanged and a
// *models.ConsistencyFault is returned.
func (g *KeyGraph) AddEdge(holder, target string) error {
	if holder == target || g.reachable(target, holder) {
		return &models.ConsistencyFault{
			UID:    target,
			Detail: fmt.Sprintf("key-wrap cycle: %s already unlocks %s", target, holder),
		}
	}
	g.edges[holder] = append(g.edges[holder], target)
	return nil
}

// reachable reports whether to can be reached from from along wrap edges.
func (g *KeyGraph) reachable(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.edges[n] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
