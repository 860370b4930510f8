// Package intake turns a directory of YAML manifests into LabInstance
// intent.
//
// Operators and the CLI drop LabInstance manifests into the intake
// directory; removing a manifest requests deletion of the instance it named.
// The intake watches the directory with fsnotify, debounces rapid successive
// events per file (editors and atomic writers produce bursts) and hands the
// file's final state to the ControlAPI: apply for created or rewritten
// files, deletion for removed ones.
//
// Manifests express creation intent only. Specs are immutable, so a
// rewritten manifest for an existing instance is logged and dropped rather
// than treated as an update. Malformed YAML, wrong kinds and validation
// failures are logged and skipped; the file stays where it is so the
// operator can fix and rewrite it.
//
// On start the intake sweeps the directory once, which picks up manifests
// dropped while the process was down.
package intake
