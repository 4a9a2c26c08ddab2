package understory

// recordKey is the composite aggregation key: two call sites fold into one
// record exactly when they reach the same (file, range) pair. Anchoring on
// the declaration's location rather than object identity is what lets
// independently re-derived declarations merge.
type recordKey struct {
	file string
	r    Range
}

type callRecord struct {
	item   Item
	ranges []Range
}

// callAggregator merges call sites per logical caller or callee, preserving
// first-seen record order and source order inside each record's range list.
type callAggregator struct {
	order   []recordKey
	records map[recordKey]*callRecord
}

func newCallAggregator() *callAggregator {
	return &callAggregator{records: make(map[recordKey]*callRecord)}
}

func (a *callAggregator) record(item Item) *callRecord {
	key := recordKey{file: item.File, r: item.Range}
	rec, ok := a.records[key]
	if !ok {
		rec = &callRecord{item: item}
		a.records[key] = rec
		a.order = append(a.order, key)
	}
	return rec
}

// addCaller folds one matched call site into the record of its enclosing
// caller scope.
func (a *callAggregator) addCaller(caller Item, at Range) {
	rec := a.record(caller)
	rec.ranges = append(rec.ranges, at)
}

// addCallee folds one call site into the record of its resolved destination.
// literal is the spelling at the call site; when it disagrees with the
// record's stored display name, the resolved declaration's name wins.
func (a *callAggregator) addCallee(callee Item, literal string, at Range) {
	rec := a.record(callee)
	if rec.item.Name != literal {
		rec.item.Name = callee.Name
	}
	rec.ranges = append(rec.ranges, at)
}

// incomingCalls returns the aggregated records in discovery order, or nil
// when nothing was recorded.
func (a *callAggregator) incomingCalls() []IncomingCall {
	var calls []IncomingCall
	for _, key := range a.order {
		rec := a.records[key]
		calls = append(calls, IncomingCall{From: rec.item, FromRanges: rec.ranges})
	}
	return calls
}

// outgoingCalls returns the aggregated records in discovery order, or nil
// when nothing was recorded.
func (a *callAggregator) outgoingCalls() []OutgoingCall {
	var calls []OutgoingCall
	for _, key := range a.order {
		rec := a.records[key]
		calls = append(calls, OutgoingCall{To: rec.item, FromRanges: rec.ranges})
	}
	return calls
}
