package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/repo"
	"github.com/nkarimi/go-file-relay/internal/utils"
)

// User-facing reply copy. Kept in one place so wording changes never touch
// routing logic.
const (
	msgWelcome = `Hi! I turn files and URLs into temporary download links.

Send me a file, or use:
/file - convert an uploaded file
/url - convert a remote URL
/objects - list your active links
/me - quota and referral status
/help - this message`

	msgHelp = `Send me any file and I reply with a download link that works for 48 hours, no login needed.

/file - convert an uploaded file
/url - convert a remote URL
/objects - list your active links
/me - quota and referral status
/cancel - abort the current prompt`

	msgAskUpload    = "Send me the file you want to convert."
	msgAskURL       = "Send me the URL you want to convert."
	msgAskBroadcast = "Send the text to broadcast to every user."

	msgBanned       = "Your account is blocked."
	msgDailyLimit   = "You have used today's free conversions. Invite friends with your referral link (/me) or try again tomorrow."
	msgInvalidURL   = "That does not look like a valid http(s) URL. Try again."
	msgTooLarge     = "That payload is larger than the allowed maximum."
	msgUpstreamFail = "I could not fetch that URL. The remote server refused or failed."
	msgTransferFail = "Something went wrong while transferring the payload. Please try again."
	msgNotAFile     = "I was expecting a file. Send one, or /help."
	msgUnknown      = "I did not understand that. Send a file, a URL, or /help."
	msgMembership   = "Please join %s first, then try again."
	msgGateRetry    = "I could not verify your channel membership right now. Please try again in a moment."
	msgReferralOK   = "Referral counted. Thanks for spreading the word!"
	msgCancelled    = "Cancelled."
	msgLinkDeleted  = "Link deleted."
	msgLinkNotFound = "No such link."
	msgUserNotFound = "No such user."
	msgDone         = "Done."
	msgNoObjects    = "You have no active links. Send me a file to create one."
)

// issuedReply formats the success message after a conversion.
func issuedReply(o *domain.StoredObject, link string) string {
	return fmt.Sprintf("Here is your link (valid until %s):\n%s\n\n%s, %s",
		o.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
		link,
		o.Name,
		utils.FormatBytes(o.Size))
}

// objectLine formats one row of a link listing.
func objectLine(o *domain.StoredObject, link string) string {
	return fmt.Sprintf("%s - %s, %d downloads, expires %s\n%s",
		o.Name,
		utils.FormatBytes(o.Size),
		o.Downloads,
		o.ExpiresAt.UTC().Format("Jan 2 15:04"),
		link)
}

// meReply formats the quota/referral status message.
func meReply(u *domain.User, remaining int, links int64, refLink string, now time.Time) string {
	var sb strings.Builder
	if u.IsPremium(now) {
		sb.WriteString(fmt.Sprintf("Plan: premium until %s\n", u.PremiumUntil.UTC().Format("2006-01-02")))
		sb.WriteString("Conversions today: unlimited\n")
	} else {
		sb.WriteString("Plan: free\n")
		sb.WriteString(fmt.Sprintf("Conversions left today: %d\n", remaining))
	}
	sb.WriteString(fmt.Sprintf("Links stored: %d\n", links))
	sb.WriteString(fmt.Sprintf("Referrals: %d\n", u.ReferralCount))
	if refLink != "" {
		sb.WriteString("\nYour referral link:\n")
		sb.WriteString(refLink)
	}
	return sb.String()
}

// statsReply formats the admin /stats message.
func statsReply(st *repo.RelayStats) string {
	var sb strings.Builder
	sb.WriteString("Relay statistics\n\n")
	sb.WriteString(fmt.Sprintf("Users: %d (%d premium, %d banned)\n", st.Users, st.PremiumUsers, st.BannedUsers))
	sb.WriteString(fmt.Sprintf("Live objects: %d (%s)\n", st.LiveObjects, utils.FormatBytes(st.LiveBytes)))
	sb.WriteString(fmt.Sprintf("Downloads served: %d\n", st.TotalDownloads))
	return sb.String()
}

// userLine formats one row of the admin /users listing.
func userLine(u *domain.User, now time.Time) string {
	flags := make([]string, 0, 2)
	if u.IsPremium(now) {
		flags = append(flags, "premium")
	}
	if u.Banned {
		flags = append(flags, "banned")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " [" + strings.Join(flags, ",") + "]"
	}
	name := u.DisplayName
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%d %s%s files:%d urls:%d dls:%d",
		u.TelegramID, name, suffix, u.FilesCreated, u.LinksFetched, u.DownloadsServed)
}
