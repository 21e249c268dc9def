// Package workflowdef models versioned workflow definitions (stages plus
// conditional transitions) and loads them from a YAML catalog directory.
//
// The engine treats definitions as immutable once a session references them:
// the catalog returns deep copies and offers only read operations. Authoring
// happens outside this process by editing the YAML files.
package workflowdef
