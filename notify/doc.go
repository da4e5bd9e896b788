// Package notify implements the notification channel the session manager reports through:
// fire-and-forget info, success, warning and error messages, and an asynchronous yes/no
// confirmation that resolves to a boolean.
//
// [Queue] is an in-process implementation for applications that render notifications
// themselves: messages and pending prompts are delivered on channels and a prompt is
// answered with [Prompt.Resolve]. [Terminal] renders to a terminal and asks confirmations
// interactively. [Nop] discards everything and declines every confirmation.
package notify
