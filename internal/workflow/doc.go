// Package workflow keeps ticket statuses consistent with the workflows that
// define them.
//
// A workflow is an ordered, non-empty set of status names owned by an
// organization. Every project resolves to exactly one effective workflow: the
// workflow it references, or the organization's default workflow when it
// references none. A ticket's status must always be a member of its project's
// effective workflow, so every mutation that could break that relationship
// (shrinking a workflow, reassigning a project, moving a ticket) is checked
// here before anything is written.
//
// The checks come in two forms. The Check* functions are pure and return an
// Outcome describing why a change is rejected. The Guard and Registry methods
// load the state those checks need from a store.Tx, so callers run them in the
// same transaction as the write they protect.
package workflow
