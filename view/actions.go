package view

import (
	"context"

	"prism-todos/domain"
)

// ToggleComplete flips the completion flag through the store and reports the
// outcome as a notification.
func (v *ListView) ToggleComplete(ctx context.Context, task domain.Task) error {
	updated := task
	updated.Completed = !task.Completed
	err := v.store.Update(ctx, updated)
	if err != nil {
		v.notifyError(MsgStatusFailed)
		return err
	}
	if task.Completed {
		v.notifySuccess(MsgMarkedIncomplete)
	} else {
		v.notifySuccess(MsgMarkedComplete)
	}
	return nil
}

// Delete asks for confirmation and removes the task. It returns false
// without touching the store when the user declines.
func (v *ListView) Delete(ctx context.Context, id int) (bool, error) {
	if !v.confirmer.Confirm(DeletePrompt) {
		return false, nil
	}
	return true, v.DeleteConfirmed(ctx, id)
}

// DeleteConfirmed removes the task without asking. Callers that collect the
// answer themselves, such as an asynchronous prompt, use it once the user
// has agreed.
func (v *ListView) DeleteConfirmed(ctx context.Context, id int) error {
	if err := v.store.Delete(ctx, id); err != nil {
		v.notifyError(MsgDeleteFailed)
		return err
	}
	v.notifySuccess(MsgDeleted)
	return nil
}

// SaveEdit persists a task produced by the edit view. On failure the manual
// display order is discarded.
func (v *ListView) SaveEdit(ctx context.Context, task domain.Task) error {
	if err := v.store.Update(ctx, task); err != nil {
		v.notifyError(MsgUpdateFailed)
		v.ResetOrder()
		return err
	}
	v.notifySuccess(MsgUpdated)
	return nil
}

func (v *ListView) notifySuccess(msg string) {
	if v.notifier != nil {
		v.notifier.Success(msg)
	}
}

func (v *ListView) notifyError(msg string) {
	if v.notifier != nil {
		v.notifier.Error(msg)
	}
}
