// Package workflow contains the routing and orchestration core: a fixed
// directed graph of task nodes driven by oracle classifications, threading a
// shared per-run state object from the entry router to a terminal node.
//
// The graph topology is small and static. Branches are decided by the
// classification oracle; every branch decision is an exhaustive match over a
// closed label set, and an unrecognized label aborts the run instead of
// falling through to a default path. Nodes within one run execute strictly
// sequentially; independent runs may execute in parallel as long as they do
// not share State instances.
package workflow
