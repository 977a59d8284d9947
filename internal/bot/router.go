// Package bot – Router
//
// The router turns incoming Telegram updates into relay operations. It owns
// command dispatch, the per-user conversation state machine, the channel
// membership gate, and the admin command table. All heavy lifting is
// delegated to the service layer; the router only sequences calls and maps
// service errors to user replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/sentry"
	"github.com/nkarimi/go-file-relay/internal/services"
	"github.com/nkarimi/go-file-relay/internal/utils"
)

// referralPrefix marks a /start deep-link payload as a referral.
const referralPrefix = "ref_"

// Sender delivers replies. *Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// FileFetcher opens uploaded payload streams. *Client implements it.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// MembershipChecker answers the required-channel gate. *Client implements it.
type MembershipChecker interface {
	IsMember(ctx context.Context, chat string, userID int64) (bool, error)
}

// adminHandler is one entry in the admin command table.
type adminHandler func(ctx context.Context, m *Message, args string)

// Router dispatches updates to relay operations.
type Router struct {
	Sender  Sender
	Files   FileFetcher
	Members MembershipChecker

	Quota  *services.QuotaService
	Links  *services.LinkService
	States *services.StateService
	Fetch  *services.FetchService

	// AdminID enables the admin command table for one user; 0 disables it.
	AdminID int64
	// RequiredChat gates conversions behind channel membership when set.
	RequiredChat string
	// BotUsername builds referral deep links; empty disables the /me link.
	BotUsername string
	// ExtendDefault is the duration applied by /extend without an explicit
	// duration argument.
	ExtendDefault time.Duration

	admin map[string]adminHandler
}

// NewRouter wires a Router and its admin command table.
func NewRouter(s Sender, f FileFetcher, m MembershipChecker, quota *services.QuotaService, links *services.LinkService, states *services.StateService, fetch *services.FetchService) *Router {
	r := &Router{
		Sender:        s,
		Files:         f,
		Members:       m,
		Quota:         quota,
		Links:         links,
		States:        states,
		Fetch:         fetch,
		ExtendDefault: 48 * time.Hour,
	}
	r.admin = map[string]adminHandler{
		"/stats":     r.adminStats,
		"/users":     r.adminUsers,
		"/links":     r.adminLinks,
		"/ban":       r.adminBan,
		"/unban":     r.adminUnban,
		"/grant":     r.adminGrant,
		"/revoke":    r.adminRevoke,
		"/del":       r.adminDelete,
		"/forget":    r.adminForget,
		"/setrefs":   r.adminSetRefs,
		"/extend":    r.adminExtend,
		"/broadcast": r.adminBroadcast,
	}
	return r
}

// HandleUpdate processes one update end to end. It never returns an error;
// failures are logged, reported, and answered with a user-facing message
// where a chat is known.
func (r *Router) HandleUpdate(ctx context.Context, up Update) {
	msg := up.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	// Direct messages only; the relay has no group behavior.
	if msg.Chat.Type != "" && msg.Chat.Type != "private" {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		cmd, args := splitCommand(text)
		r.handleCommand(ctx, msg, cmd, args)
		return
	}
	r.handleContent(ctx, msg, text)
}

// splitCommand separates "/cmd arg rest" into "/cmd" and "arg rest", and
// strips a "@botname" suffix from the command.
func splitCommand(text string) (cmd, args string) {
	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(args)
}

func (r *Router) handleCommand(ctx context.Context, msg *Message, cmd, args string) {
	uid := msg.From.ID

	switch cmd {
	case "/start":
		r.cmdStart(ctx, msg, args)
		return
	case "/help":
		r.reply(ctx, msg.Chat.ID, msgHelp)
		return
	case "/cancel":
		r.clearState(ctx, uid)
		r.reply(ctx, msg.Chat.ID, msgCancelled)
		return
	}

	// Everything past /start, /help and /cancel sits behind the gate.
	if !r.passesGate(ctx, msg) {
		return
	}

	if h, ok := r.admin[cmd]; ok {
		// Non-admins get the same reply an unknown command gets, so the
		// admin table's existence never leaks.
		if r.AdminID == 0 || uid != r.AdminID {
			r.reply(ctx, msg.Chat.ID, msgUnknown)
			return
		}
		h(ctx, msg, args)
		return
	}

	switch cmd {
	case "/file":
		if err := r.States.Set(ctx, uid, domain.ModeAwaitingUpload, ""); err != nil {
			r.fail(ctx, msg.Chat.ID, err)
			return
		}
		r.reply(ctx, msg.Chat.ID, msgAskUpload)
	case "/url":
		if err := r.States.Set(ctx, uid, domain.ModeAwaitingURL, ""); err != nil {
			r.fail(ctx, msg.Chat.ID, err)
			return
		}
		r.reply(ctx, msg.Chat.ID, msgAskURL)
	case "/objects":
		r.cmdObjects(ctx, msg)
	case "/me":
		r.cmdMe(ctx, msg)
	default:
		r.reply(ctx, msg.Chat.ID, msgUnknown)
	}
}

// cmdStart resets any pending prompt, registers the user, credits a referral
// deep link when present, and greets.
func (r *Router) cmdStart(ctx context.Context, msg *Message, args string) {
	uid := msg.From.ID
	r.clearState(ctx, uid)
	if _, err := r.Quota.Register(ctx, uid, msg.From.DisplayName()); err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}

	if strings.HasPrefix(args, referralPrefix) {
		referrerID := utils.ParseInt64Default(strings.TrimPrefix(args, referralPrefix), 0)
		if referrerID != 0 {
			credited, err := r.Quota.RegisterReferral(ctx, uid, referrerID)
			if err != nil && !errors.Is(err, services.ErrSelfReferral) && !errors.Is(err, services.ErrUserNotFound) {
				r.fail(ctx, msg.Chat.ID, err)
				return
			}
			if credited {
				r.reply(ctx, msg.Chat.ID, msgReferralOK)
			}
		}
	}

	r.reply(ctx, msg.Chat.ID, msgWelcome)
}

func (r *Router) cmdObjects(ctx context.Context, msg *Message) {
	objs, err := r.Links.ListOwned(ctx, msg.From.ID)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	if len(objs) == 0 {
		r.reply(ctx, msg.Chat.ID, msgNoObjects)
		return
	}
	lines := make([]string, 0, len(objs))
	for i := range objs {
		lines = append(lines, objectLine(&objs[i], r.Links.URL(&objs[i])))
	}
	r.reply(ctx, msg.Chat.ID, strings.Join(lines, "\n\n"))
}

func (r *Router) cmdMe(ctx context.Context, msg *Message) {
	uid := msg.From.ID
	u, err := r.Quota.Register(ctx, uid, msg.From.DisplayName())
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	remaining, err := r.Quota.Remaining(ctx, uid)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	links, _, err := r.Links.OwnedSummary(ctx, uid)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	refLink := ""
	if r.BotUsername != "" {
		refLink = fmt.Sprintf("https://t.me/%s?start=%s%d", r.BotUsername, referralPrefix, uid)
	}
	r.reply(ctx, msg.Chat.ID, meReply(u, remaining, links, refLink, time.Now().UTC()))
}

// handleContent processes non-command messages through the conversation
// state machine.
func (r *Router) handleContent(ctx context.Context, msg *Message, text string) {
	uid := msg.From.ID

	mode, _, err := r.States.Get(ctx, uid)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}

	// Admin prompt slots first; they never carry attachments.
	if r.AdminID != 0 && uid == r.AdminID {
		switch mode {
		case domain.ModeAdminBroadcast:
			r.clearState(ctx, uid)
			r.doBroadcast(ctx, msg, text)
			return
		case domain.ModeAdminGrantTarget:
			r.clearState(ctx, uid)
			r.adminGrant(ctx, msg, text)
			return
		case domain.ModeAdminExtendTarget:
			r.clearState(ctx, uid)
			r.adminExtend(ctx, msg, text)
			return
		}
	}

	if !r.passesGate(ctx, msg) {
		return
	}

	fileID, name, mime, hasFile := pickAttachment(msg)

	switch mode {
	case domain.ModeAwaitingUpload:
		if !hasFile {
			r.reply(ctx, msg.Chat.ID, msgNotAFile)
			return
		}
		r.clearState(ctx, uid)
		r.convertUpload(ctx, msg, fileID, name, mime)
	case domain.ModeAwaitingURL:
		// Malformed input keeps the prompt slot open for another try;
		// only a well-formed URL consumes it.
		if _, err := services.ValidateURL(text); err != nil {
			r.reply(ctx, msg.Chat.ID, msgInvalidURL)
			return
		}
		r.clearState(ctx, uid)
		r.convertURL(ctx, msg, text)
	default:
		// Idle users get the obvious interpretation: files convert, URLs
		// convert, anything else earns a hint.
		if hasFile {
			r.convertUpload(ctx, msg, fileID, name, mime)
			return
		}
		if _, err := services.ValidateURL(text); err == nil && text != "" {
			r.convertURL(ctx, msg, text)
			return
		}
		r.reply(ctx, msg.Chat.ID, msgUnknown)
	}
}

// pickAttachment extracts the file reference from whatever attachment kind
// the message carries. Photos use the largest available resolution.
func pickAttachment(msg *Message) (fileID, name, mime string, ok bool) {
	switch {
	case msg.Document != nil:
		name = msg.Document.FileName
		if name == "" {
			name = "document"
		}
		return msg.Document.FileID, name, msg.Document.MimeType, true
	case msg.Video != nil:
		name = msg.Video.FileName
		if name == "" {
			name = "video.mp4"
		}
		return msg.Video.FileID, name, msg.Video.MimeType, true
	case msg.Audio != nil:
		name = msg.Audio.FileName
		if name == "" {
			name = "audio.mp3"
		}
		return msg.Audio.FileID, name, msg.Audio.MimeType, true
	case msg.Voice != nil:
		return msg.Voice.FileID, "voice.ogg", msg.Voice.MimeType, true
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.FileSize > best.FileSize {
				best = p
			}
		}
		return best.FileID, "photo.jpg", "image/jpeg", true
	}
	return "", "", "", false
}

// convertUpload runs the uploaded-file conversion: authorize, stream the
// payload out of Telegram into the blob store, commit quota, reply with the
// link.
func (r *Router) convertUpload(ctx context.Context, msg *Message, fileID, name, mime string) {
	uid := msg.From.ID
	u, err := r.Quota.Authorize(ctx, uid, msg.From.DisplayName())
	if err != nil {
		r.replyQuotaError(ctx, msg.Chat.ID, err)
		return
	}

	rc, err := r.Files.FetchFile(ctx, fileID)
	if err != nil {
		sentry.CaptureError(err)
		log.Warn().Err(err).Int64("user", uid).Msg("file fetch failed")
		r.reply(ctx, msg.Chat.ID, msgTransferFail)
		return
	}
	defer rc.Close()

	o, err := r.Links.Issue(ctx, uid, name, mime, domain.OriginUploaded, rc)
	if err != nil {
		r.replyIssueError(ctx, msg.Chat.ID, uid, err)
		return
	}
	if err := r.Quota.Commit(ctx, u); err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, issuedReply(o, r.Links.URL(o)))
}

// convertURL runs the remote-URL conversion. The URL is validated before any
// quota is authorized so garbage input never consumes an attempt or triggers
// the daily-limit upsell.
func (r *Router) convertURL(ctx context.Context, msg *Message, raw string) {
	uid := msg.From.ID
	if _, err := services.ValidateURL(raw); err != nil {
		r.reply(ctx, msg.Chat.ID, msgInvalidURL)
		return
	}
	u, err := r.Quota.Authorize(ctx, uid, msg.From.DisplayName())
	if err != nil {
		r.replyQuotaError(ctx, msg.Chat.ID, err)
		return
	}

	res, err := r.Fetch.Fetch(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidURL):
			r.reply(ctx, msg.Chat.ID, msgInvalidURL)
		case errors.Is(err, services.ErrPayloadTooLarge):
			r.reply(ctx, msg.Chat.ID, msgTooLarge)
		case errors.Is(err, services.ErrUpstreamFetch):
			r.reply(ctx, msg.Chat.ID, msgUpstreamFail)
		default:
			r.fail(ctx, msg.Chat.ID, err)
		}
		return
	}
	defer res.Body.Close()

	o, err := r.Links.Issue(ctx, uid, res.Name, res.ContentType, domain.OriginFetched, res.Body)
	if err != nil {
		r.replyIssueError(ctx, msg.Chat.ID, uid, err)
		return
	}
	if err := r.Quota.Commit(ctx, u); err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, issuedReply(o, r.Links.URL(o)))
}

// ---- admin command table ----

func (r *Router) adminStats(ctx context.Context, msg *Message, _ string) {
	st, err := r.Quota.Stats(ctx)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, statsReply(st))
}

func (r *Router) adminUsers(ctx context.Context, msg *Message, args string) {
	page := utils.AtoiDefault(args, 1)
	if page < 1 {
		page = 1
	}
	users, total, err := r.Quota.ListPage(ctx, page, 20)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	now := time.Now().UTC()
	lines := make([]string, 0, len(users)+1)
	lines = append(lines, fmt.Sprintf("Users (%d total, page %d):", total, page))
	for i := range users {
		lines = append(lines, userLine(&users[i], now))
	}
	r.reply(ctx, msg.Chat.ID, strings.Join(lines, "\n"))
}

func (r *Router) adminLinks(ctx context.Context, msg *Message, args string) {
	page := utils.AtoiDefault(args, 1)
	if page < 1 {
		page = 1
	}
	objs, err := r.Links.ListAllPage(ctx, page, 20)
	if err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	if len(objs) == 0 {
		r.reply(ctx, msg.Chat.ID, "No live links on this page.")
		return
	}
	lines := make([]string, 0, len(objs))
	for i := range objs {
		o := &objs[i]
		lines = append(lines, fmt.Sprintf("%s owner:%d %s", objectLine(o, r.Links.URL(o)), o.OwnerID, o.Origin))
	}
	r.reply(ctx, msg.Chat.ID, strings.Join(lines, "\n\n"))
}

func (r *Router) adminBan(ctx context.Context, msg *Message, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /ban <user id>")
		return
	}
	if err := r.Quota.Ban(ctx, id); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgDone)
}

func (r *Router) adminUnban(ctx context.Context, msg *Message, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /unban <user id>")
		return
	}
	if err := r.Quota.Unban(ctx, id); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgDone)
}

// adminGrant activates premium: "/grant <user id> [duration]". Without
// arguments it parks the admin in a prompt slot and parses the next message
// the same way.
func (r *Router) adminGrant(ctx context.Context, msg *Message, args string) {
	if args == "" {
		if err := r.States.Set(ctx, msg.From.ID, domain.ModeAdminGrantTarget, ""); err != nil {
			r.fail(ctx, msg.Chat.ID, err)
			return
		}
		r.reply(ctx, msg.Chat.ID, "Send: <user id> [duration, e.g. 720h]")
		return
	}
	idStr, durStr, _ := strings.Cut(args, " ")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /grant <user id> [duration]")
		return
	}
	d := r.Quota.PremiumDuration
	if durStr != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(durStr))
		if err != nil || parsed <= 0 {
			r.reply(ctx, msg.Chat.ID, "Bad duration. Use Go syntax, e.g. 720h.")
			return
		}
		d = parsed
	}
	if err := r.Quota.GrantPremium(ctx, id, d); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgDone)
}

func (r *Router) adminRevoke(ctx context.Context, msg *Message, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /revoke <user id>")
		return
	}
	if err := r.Quota.RevokePremium(ctx, id); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgDone)
}

func (r *Router) adminDelete(ctx context.Context, msg *Message, args string) {
	if args == "" {
		r.reply(ctx, msg.Chat.ID, "Usage: /del <link id>")
		return
	}
	if err := r.Links.AdminDelete(ctx, args); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgLinkDeleted)
}

// adminForget erases a user entirely: every live link is purged, the
// conversation slot dropped, the user row deleted.
func (r *Router) adminForget(ctx context.Context, msg *Message, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /forget <user id>")
		return
	}
	purged, err := r.Links.PurgeOwner(ctx, id)
	if err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.clearState(ctx, id)
	if err := r.Quota.ForgetUser(ctx, id); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, fmt.Sprintf("User forgotten, %d links purged.", purged))
}

func (r *Router) adminSetRefs(ctx context.Context, msg *Message, args string) {
	idStr, nStr, ok := strings.Cut(args, " ")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if !ok || err != nil {
		r.reply(ctx, msg.Chat.ID, "Usage: /setrefs <user id> <count>")
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(nStr))
	if err != nil || n < 0 {
		r.reply(ctx, msg.Chat.ID, "Usage: /setrefs <user id> <count>")
		return
	}
	if err := r.Quota.SetReferralCount(ctx, id, n); err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgDone)
}

// adminExtend pushes a link's expiry out: "/extend <link id> [duration]".
// Without arguments it parks the admin in a prompt slot.
func (r *Router) adminExtend(ctx context.Context, msg *Message, args string) {
	if args == "" {
		if err := r.States.Set(ctx, msg.From.ID, domain.ModeAdminExtendTarget, ""); err != nil {
			r.fail(ctx, msg.Chat.ID, err)
			return
		}
		r.reply(ctx, msg.Chat.ID, "Send: <link id> [duration, e.g. 48h]")
		return
	}
	id, durStr, _ := strings.Cut(args, " ")
	d := r.ExtendDefault
	if durStr != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(durStr))
		if err != nil || parsed <= 0 {
			r.reply(ctx, msg.Chat.ID, "Bad duration. Use Go syntax, e.g. 48h.")
			return
		}
		d = parsed
	}
	o, err := r.Links.Extend(ctx, id, d)
	if err != nil {
		r.replyAdminError(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, fmt.Sprintf("Extended until %s.", o.ExpiresAt.UTC().Format("2006-01-02 15:04 MST")))
}

func (r *Router) adminBroadcast(ctx context.Context, msg *Message, args string) {
	if args != "" {
		r.doBroadcast(ctx, msg, args)
		return
	}
	if err := r.States.Set(ctx, msg.From.ID, domain.ModeAdminBroadcast, ""); err != nil {
		r.fail(ctx, msg.Chat.ID, err)
		return
	}
	r.reply(ctx, msg.Chat.ID, msgAskBroadcast)
}

// doBroadcast fans the text out to every known user. Individual delivery
// failures are counted, not fatal.
func (r *Router) doBroadcast(ctx context.Context, msg *Message, text string) {
	if strings.TrimSpace(text) == "" {
		r.reply(ctx, msg.Chat.ID, msgAskBroadcast)
		return
	}
	sent, failed := 0, 0
	for page := 1; ; page++ {
		users, _, err := r.Quota.ListPage(ctx, page, 100)
		if err != nil {
			r.fail(ctx, msg.Chat.ID, err)
			return
		}
		if len(users) == 0 {
			break
		}
		for i := range users {
			if users[i].TelegramID == msg.From.ID {
				continue
			}
			if err := r.Sender.SendMessage(ctx, users[i].TelegramID, text); err != nil {
				failed++
				continue
			}
			sent++
		}
		if len(users) < 100 {
			break
		}
	}
	r.reply(ctx, msg.Chat.ID, fmt.Sprintf("Broadcast delivered to %d users (%d failed).", sent, failed))
}

// ---- shared helpers ----

// passesGate enforces required-channel membership. Both a non-member result
// and a failed check block the action; the admin bypasses the gate.
func (r *Router) passesGate(ctx context.Context, msg *Message) bool {
	if r.RequiredChat == "" {
		return true
	}
	if r.AdminID != 0 && msg.From.ID == r.AdminID {
		return true
	}
	ok, err := r.Members.IsMember(ctx, r.RequiredChat, msg.From.ID)
	if err != nil {
		log.Warn().Err(err).Str("chat", r.RequiredChat).Msg("membership check failed")
		r.reply(ctx, msg.Chat.ID, msgGateRetry)
		return false
	}
	if !ok {
		r.reply(ctx, msg.Chat.ID, fmt.Sprintf(msgMembership, r.RequiredChat))
	}
	return ok
}

func (r *Router) replyQuotaError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, services.ErrBanned):
		r.reply(ctx, chatID, msgBanned)
	case errors.Is(err, services.ErrDailyLimitReached):
		r.reply(ctx, chatID, msgDailyLimit)
	default:
		r.fail(ctx, chatID, err)
	}
}

func (r *Router) replyIssueError(ctx context.Context, chatID, uid int64, err error) {
	switch {
	case errors.Is(err, services.ErrPayloadTooLarge):
		r.reply(ctx, chatID, msgTooLarge)
	case errors.Is(err, services.ErrTransferFailed):
		sentry.CaptureError(err)
		log.Warn().Err(err).Int64("user", uid).Msg("payload transfer failed")
		r.reply(ctx, chatID, msgTransferFail)
	default:
		r.fail(ctx, chatID, err)
	}
}

func (r *Router) replyAdminError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		r.reply(ctx, chatID, msgUserNotFound)
	case errors.Is(err, services.ErrLinkNotFound):
		r.reply(ctx, chatID, msgLinkNotFound)
	default:
		r.fail(ctx, chatID, err)
	}
}

func (r *Router) clearState(ctx context.Context, uid int64) {
	if err := r.States.Clear(ctx, uid); err != nil {
		log.Warn().Err(err).Int64("user", uid).Msg("state clear failed")
	}
}

// fail logs and reports an unexpected error, then sends a generic apology.
func (r *Router) fail(ctx context.Context, chatID int64, err error) {
	sentry.CaptureError(err)
	log.Error().Err(err).Int64("chat", chatID).Msg("update handling failed")
	r.reply(ctx, chatID, msgTransferFail)
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.Sender.SendMessage(ctx, chatID, text); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("reply failed")
	}
}
