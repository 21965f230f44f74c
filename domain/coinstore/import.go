package coinstore

// BeginImport marks the store as being bulk loaded. A store that is still
// marked when it's reopened holds a partial import and must be discarded.
func (cs *CoinStore) BeginImport() error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()
	return cs.db.Put(importingKey, []byte{1})
}

// IsImporting returns whether an import was started and not finished.
func (cs *CoinStore) IsImporting() (bool, error) {
	return cs.db.Has(importingKey)
}

// FinishImport flushes the remaining staged coins together with the tip
// the imported set corresponds to, and clears the import mark in the same
// transaction.
func (cs *CoinStore) FinishImport(tip *Tip) error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()
	return cs.flush(tip, true)
}

// FlushImportBatch writes the coins staged so far without setting a tip.
// It's used to bound memory while importing.
func (cs *CoinStore) FlushImportBatch() error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()
	return cs.flush(nil, false)
}

// StagedCount returns the number of staged insertions and removals.
func (cs *CoinStore) StagedCount() int {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	return len(cs.toAdd) + len(cs.toRemove)
}
