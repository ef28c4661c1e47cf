// Package gmail wraps the provider's REST API with typed helpers for the
// command layer. Every call is a single request; no retries, no pagination
// beyond a page-size parameter.
package gmail

import (
	"encoding/base64"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"
)

const userID = "me"

// Client issues requests on behalf of the authenticated user.
type Client struct {
	svc *gmailapi.Service
}

func NewClient(svc *gmailapi.Service) *Client {
	return &Client{svc: svc}
}

// ListMessages returns message stubs matching a search query, optionally
// restricted to labels.
func (c *Client) ListMessages(query string, labelIDs []string, max int64) ([]*gmailapi.Message, error) {
	call := c.svc.Users.Messages.List(userID).MaxResults(max)
	if query != "" {
		call = call.Q(query)
	}
	if len(labelIDs) > 0 {
		call = call.LabelIds(labelIDs...)
	}
	res, err := call.Do()
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	return res.Messages, nil
}

// GetMessage fetches the full message, payload included.
func (c *Client) GetMessage(id string) (*gmailapi.Message, error) {
	msg, err := c.svc.Users.Messages.Get(userID, id).Format("full").Do()
	if err != nil {
		return nil, wrapErr("get message", err)
	}
	return msg, nil
}

// Send delivers the message and returns its assigned ID.
func (c *Client) Send(msg *OutgoingMessage) (string, error) {
	raw, err := msg.BuildRaw()
	if err != nil {
		return "", err
	}
	sent, err := c.svc.Users.Messages.Send(userID, &gmailapi.Message{Raw: raw}).Do()
	if err != nil {
		return "", wrapErr("send message", err)
	}
	return sent.Id, nil
}

// MarkRead removes the UNREAD label.
func (c *Client) MarkRead(id string) error {
	_, err := c.svc.Users.Messages.Modify(userID, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{labelUnread},
	}).Do()
	return wrapErr("mark read", err)
}

// MarkUnread adds the UNREAD label.
func (c *Client) MarkUnread(id string) error {
	_, err := c.svc.Users.Messages.Modify(userID, id, &gmailapi.ModifyMessageRequest{
		AddLabelIds: []string{labelUnread},
	}).Do()
	return wrapErr("mark unread", err)
}

// DeleteMessage permanently removes the message.
func (c *Client) DeleteMessage(id string) error {
	return wrapErr("delete message", c.svc.Users.Messages.Delete(userID, id).Do())
}

// ListDrafts returns draft stubs.
func (c *Client) ListDrafts(max int64) ([]*gmailapi.Draft, error) {
	res, err := c.svc.Users.Drafts.List(userID).MaxResults(max).Do()
	if err != nil {
		return nil, wrapErr("list drafts", err)
	}
	return res.Drafts, nil
}

// GetDraft fetches a draft with its full message.
func (c *Client) GetDraft(id string) (*gmailapi.Draft, error) {
	draft, err := c.svc.Users.Drafts.Get(userID, id).Format("full").Do()
	if err != nil {
		return nil, wrapErr("get draft", err)
	}
	return draft, nil
}

// CreateDraft saves the message as a draft and returns the draft ID.
func (c *Client) CreateDraft(msg *OutgoingMessage) (string, error) {
	raw, err := msg.BuildRaw()
	if err != nil {
		return "", err
	}
	draft, err := c.svc.Users.Drafts.Create(userID, &gmailapi.Draft{
		Message: &gmailapi.Message{Raw: raw},
	}).Do()
	if err != nil {
		return "", wrapErr("create draft", err)
	}
	return draft.Id, nil
}

// SendDraft sends an existing draft and returns the sent message ID.
func (c *Client) SendDraft(id string) (string, error) {
	sent, err := c.svc.Users.Drafts.Send(userID, &gmailapi.Draft{Id: id}).Do()
	if err != nil {
		return "", wrapErr("send draft", err)
	}
	return sent.Id, nil
}

// DeleteDraft discards the draft.
func (c *Client) DeleteDraft(id string) error {
	return wrapErr("delete draft", c.svc.Users.Drafts.Delete(userID, id).Do())
}

// ListThreads returns thread stubs matching a query.
func (c *Client) ListThreads(query string, labelIDs []string, max int64) ([]*gmailapi.Thread, error) {
	call := c.svc.Users.Threads.List(userID).MaxResults(max)
	if query != "" {
		call = call.Q(query)
	}
	if len(labelIDs) > 0 {
		call = call.LabelIds(labelIDs...)
	}
	res, err := call.Do()
	if err != nil {
		return nil, wrapErr("list threads", err)
	}
	return res.Threads, nil
}

// GetThread fetches a thread with all of its messages.
func (c *Client) GetThread(id string) (*gmailapi.Thread, error) {
	thread, err := c.svc.Users.Threads.Get(userID, id).Format("full").Do()
	if err != nil {
		return nil, wrapErr("get thread", err)
	}
	return thread, nil
}

// DeleteThread permanently removes the thread and its messages.
func (c *Client) DeleteThread(id string) error {
	return wrapErr("delete thread", c.svc.Users.Threads.Delete(userID, id).Do())
}

// ListLabels returns all labels in the account.
func (c *Client) ListLabels() ([]*gmailapi.Label, error) {
	res, err := c.svc.Users.Labels.List(userID).Do()
	if err != nil {
		return nil, wrapErr("list labels", err)
	}
	return res.Labels, nil
}

// CreateLabel creates a user label with the given visibility settings.
func (c *Client) CreateLabel(name, labelListVisibility, messageListVisibility string) (*gmailapi.Label, error) {
	label, err := c.svc.Users.Labels.Create(userID, &gmailapi.Label{
		Name:                  name,
		LabelListVisibility:   labelListVisibility,
		MessageListVisibility: messageListVisibility,
	}).Do()
	if err != nil {
		return nil, wrapErr("create label", err)
	}
	return label, nil
}

// DeleteLabel removes a user label.
func (c *Client) DeleteLabel(id string) error {
	return wrapErr("delete label", c.svc.Users.Labels.Delete(userID, id).Do())
}

// ListFilters returns the account's mail filters.
func (c *Client) ListFilters() ([]*gmailapi.Filter, error) {
	res, err := c.svc.Users.Settings.Filters.List(userID).Do()
	if err != nil {
		return nil, wrapErr("list filters", err)
	}
	return res.Filter, nil
}

// ListForwardingAddresses returns configured forwarding addresses.
func (c *Client) ListForwardingAddresses() ([]*gmailapi.ForwardingAddress, error) {
	res, err := c.svc.Users.Settings.ForwardingAddresses.List(userID).Do()
	if err != nil {
		return nil, wrapErr("list forwarding addresses", err)
	}
	return res.ForwardingAddresses, nil
}

// ListSendAs returns the account's send-as aliases.
func (c *Client) ListSendAs() ([]*gmailapi.SendAs, error) {
	res, err := c.svc.Users.Settings.SendAs.List(userID).Do()
	if err != nil {
		return nil, wrapErr("list send-as aliases", err)
	}
	return res.SendAs, nil
}

// VacationSettings returns the vacation responder configuration.
func (c *Client) VacationSettings() (*gmailapi.VacationSettings, error) {
	settings, err := c.svc.Users.Settings.GetVacation(userID).Do()
	if err != nil {
		return nil, wrapErr("get vacation settings", err)
	}
	return settings, nil
}

// DownloadAttachment fetches and decodes an attachment body.
func (c *Client) DownloadAttachment(messageID, attachmentID string) ([]byte, error) {
	body, err := c.svc.Users.Messages.Attachments.Get(userID, messageID, attachmentID).Do()
	if err != nil {
		return nil, wrapErr("download attachment", err)
	}
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(
		trimPadding(body.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment data: %w", err)
	}
	return data, nil
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}
