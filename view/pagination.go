package view

import "prism-todos/domain"

func (v *ListView) PageSize() int { return v.pageSize }

// Page returns the 1-based page index.
func (v *ListView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// PageCount is never below 1, even for an empty display order.
func (v *ListView) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := (len(v.order) + v.pageSize - 1) / v.pageSize
	if n < 1 {
		return 1
	}
	return n
}

// PageItems returns the slice of the display order visible on the current page.
func (v *ListView) PageItems() []domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageItemsLocked()
}

func (v *ListView) pageItemsLocked() []domain.Task {
	display := v.displayLocked()
	start := (v.page - 1) * v.pageSize
	if start >= len(display) {
		return []domain.Task{}
	}
	end := start + v.pageSize
	if end > len(display) {
		end = len(display)
	}
	return display[start:end]
}

func (v *ListView) CanNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page*v.pageSize < len(v.order)
}

func (v *ListView) CanPrev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page > 1
}

// NextPage advances one page when allowed and reports whether it moved.
func (v *ListView) NextPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page*v.pageSize >= len(v.order) {
		return false
	}
	v.page++
	return true
}

// PrevPage goes back one page, stopping at 1.
func (v *ListView) PrevPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page <= 1 {
		return false
	}
	v.page--
	return true
}

// SetPage jumps to page n, clamped to [1, PageCount].
func (v *ListView) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	last := (len(v.order) + v.pageSize - 1) / v.pageSize
	if n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}
	v.page = n
}
