package syncstate

// Classify implements §4.8's status function: unchanged when the two
// hashes are equal (including both empty/null), local-only when
// remote is empty, remote-only when local is empty, local-modified
// otherwise.
func Classify(localHash, remoteHash string) Status {
	if localHash == remoteHash {
		return Unchanged
	}
	if remoteHash == "" {
		return LocalOnly
	}
	if localHash == "" {
		return RemoteOnly
	}
	return LocalModified
}
