package view

// Move relocates the item at display index from to display index to. Indexes
// are absolute within the display order. It reports whether anything moved.
func (v *ListView) Move(from, to int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.moveLocked(from, to)
}

func (v *ListView) moveLocked(from, to int) bool {
	n := len(v.order)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	id := v.order[from]
	order := make([]int, 0, n)
	order = append(order, v.order[:from]...)
	order = append(order, v.order[from+1:]...)
	order = append(order[:to], append([]int{id}, order[to:]...)...)
	v.order = order
	return true
}

// Drag applies a drag-and-drop result from the current page. Indexes are
// relative to the page; a nil destination means the drag was cancelled.
func (v *ListView) Drag(source int, destination *int) bool {
	if destination == nil {
		return false
	}
	v.mu.Lock()
	visible := len(v.pageItemsLocked())
	if source < 0 || source >= visible || *destination < 0 || *destination >= visible {
		v.mu.Unlock()
		return false
	}
	offset := (v.page - 1) * v.pageSize
	moved := v.moveLocked(offset+source, offset+*destination)
	v.mu.Unlock()

	if moved && v.notifier != nil {
		v.notifier.Info(MsgOrderUpdated)
	}
	return moved
}
