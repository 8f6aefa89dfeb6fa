package telegram

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/receipt_bot/internal/config"
	"github.com/mroshb/receipt_bot/internal/handlers"
	"github.com/mroshb/receipt_bot/pkg/logger"
)

const workerCount = 10

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager
	files    *http.Client

	// User sessions for conversation state
	sessions map[int64]*handlers.UserSession
	mu       sync.RWMutex

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update

	stopping chan struct{}
	stopOnce sync.Once
}

func InitBot(cfg *config.Config, handlerMgr *handlers.HandlerManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := &Bot{
		api:         api,
		config:      cfg,
		handlers:    handlerMgr,
		files:       &http.Client{Timeout: 30 * time.Second},
		sessions:    make(map[int64]*handlers.UserSession),
		workerChans: make([]chan tgbotapi.Update, workerCount),
		stopping:    make(chan struct{}),
	}

	// Start workers
	for i := 0; i < workerCount; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}

			if userID == 0 {
				continue
			}

			// Hashed dispatch keeps each operator's updates in order, so a
			// draft is only ever touched by one worker.
			workerIdx := userID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			b.workerChans[workerIdx] <- update
		}

		select {
		case <-b.stopping:
			for _, ch := range b.workerChans {
				close(ch)
			}
			return
		default:
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID

	logger.Debug("Received message",
		"user_id", userID,
		"text", message.Text,
		"has_document", message.Document != nil,
	)

	if !b.handlers.Admit(userID, b) {
		return
	}
	b.processMessage(message)
}

func (b *Bot) processMessage(message *tgbotapi.Message) {
	userID := message.From.ID
	session := b.getSession(userID)

	if message.Document != nil {
		b.handleDocument(message, session)
		return
	}

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	text := normalizeButton(message.Text)

	if text == normalizeButton(handlers.BtnCancel) {
		b.clearSession(userID)
		b.SendMainMenu(userID, handlers.MsgCancel)
		return
	}

	// Menu buttons always win so the operator can leave a half-filled form
	if b.handleButtonPress(userID, text, session) {
		return
	}

	if session.InForm() {
		b.handlers.HandleFormInput(userID, message.Text, session, b)
		return
	}

	if session.State == handlers.StateAwaitingImport {
		b.sendMessage(userID, handlers.MsgAskImport, handlers.CancelKeyboard())
		return
	}

	b.SendMainMenu(userID, handlers.MsgMainMenu)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID

	switch message.Command() {
	case "start":
		// Always clear session on start to prevent stuck states
		b.clearSession(userID)
		b.SendMainMenu(userID, handlers.MsgWelcome)

	case "help":
		b.SendMainMenu(userID, handlers.MsgHelp)

	case "cancel":
		b.clearSession(userID)
		b.SendMainMenu(userID, handlers.MsgCancel)

	case "new":
		b.handlers.StartInvoice(userID, b.getSession(userID), b)

	case "last":
		b.handlers.LoadLast(userID, b.getSession(userID), b)

	case "saved":
		b.handlers.ShowSaved(userID, b)

	case "import":
		b.handlers.AwaitImport(userID, b.getSession(userID), b)

	default:
		b.SendMainMenu(userID, handlers.MsgMainMenu)
	}
}

func normalizeButton(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u200c", ""))
}

func (b *Bot) handleButtonPress(userID int64, btn string, session *handlers.UserSession) bool {
	switch btn {
	case normalizeButton(handlers.BtnNewInvoice):
		b.handlers.StartInvoice(userID, session, b)
	case normalizeButton(handlers.BtnLoadLast):
		b.handlers.LoadLast(userID, session, b)
	case normalizeButton(handlers.BtnSavedInvoices):
		b.handlers.ShowSaved(userID, b)
	case normalizeButton(handlers.BtnImport):
		b.handlers.AwaitImport(userID, session, b)
	case normalizeButton(handlers.BtnHelp):
		b.SendMainMenu(userID, handlers.MsgHelp)
	default:
		return false
	}
	return true
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(query.ID, "")
	b.api.Request(callback)

	userID := query.From.ID
	if !b.handlers.Admit(userID, b) {
		return
	}

	// Remove inline keyboard to keep chat clean and stop double taps
	if query.Message != nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(query.Message.Chat.ID, query.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		b.api.Request(edit)
	}

	logger.Debug("Callback query", "data", query.Data, "user_id", userID)

	data := query.Data
	session := b.getSession(userID)

	switch {
	case strings.HasPrefix(data, handlers.CallbackButton):
		// Simulate a message so skip/cancel go through the same path as typed text
		fakeMsg := &tgbotapi.Message{
			From: query.From,
			Text: strings.TrimPrefix(data, handlers.CallbackButton),
		}
		if query.Message != nil {
			fakeMsg.Chat = query.Message.Chat
		}
		b.processMessage(fakeMsg)

	case strings.HasPrefix(data, handlers.CallbackInvoice), strings.HasPrefix(data, handlers.CallbackTax):
		b.handlers.HandleInvoiceCallback(userID, data, session, b)

	case strings.HasPrefix(data, handlers.CallbackSaved):
		messageID := 0
		if query.Message != nil {
			messageID = query.Message.MessageID
		}
		b.handlers.HandleSavedCallback(userID, messageID, data, session, b)

	default:
		logger.Warn("Unknown callback", "data", data, "user_id", userID)
	}
}

// handleDocument accepts receipt workbooks at any point; other files are
// ignored with a hint.
func (b *Bot) handleDocument(message *tgbotapi.Message, session *handlers.UserSession) {
	userID := message.From.ID
	doc := message.Document

	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		b.sendMessage(userID, handlers.MsgAskImport, nil)
		return
	}
	if int64(doc.FileSize) > b.config.UploadMaxSize {
		b.sendMessage(userID, fmt.Sprintf(handlers.MsgBadFile, b.config.UploadMaxSize/(1<<20)), nil)
		return
	}

	data, err := b.downloadFile(doc.FileID)
	if err != nil {
		logger.Error("Failed to download document", "user_id", userID, "file_id", doc.FileID, "error", err)
		b.sendMessage(userID, handlers.MsgError, nil)
		return
	}

	b.handlers.ImportWorkbook(userID, doc.FileName, data, session, b)
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	resp, err := b.files.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// one byte over the limit lets ImportWorkbook reject oversized files
	return io.ReadAll(io.LimitReader(resp.Body, b.config.UploadMaxSize+1))
}

func (b *Bot) getSession(userID int64) *handlers.UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.sessions[userID]; exists {
		return session
	}

	session := handlers.NewSession()
	b.sessions[userID] = session
	return session
}

func (b *Bot) clearSession(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[userID] = handlers.NewSession()
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	// Add RTL mark for Arabic text
	rtlText := "\u200f" + text
	msg := tgbotapi.NewMessage(chatID, rtlText)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	return b.send(msg, chatID, "message")
}

// send delivers c, retrying network failures with a linear backoff.
func (b *Bot) send(c tgbotapi.Chattable, chatID int64, kind string) int {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(c)
		if err != nil {
			logger.Error("Failed to send "+kind, "error", err, "chat_id", chatID, "attempt", i+1)

			// If it's a network error, wait and retry
			if isNetworkError(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0 // Non-network error, don't retry
		}
		return sentMsg.MessageID
	}
	return 0 // All retries failed
}

func isNetworkError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "connection reset") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.api.Request(deleteMsg); err != nil {
		logger.Error("Failed to delete message", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	// Add RTL mark
	rtlText := "\u200f" + text
	msg := tgbotapi.NewEditMessageText(chatID, messageID, rtlText)
	msg.ParseMode = tgbotapi.ModeHTML

	if keyboard != nil {
		if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = &kb
		}
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

// SendDocument uploads data as a file named filename.
func (b *Bot) SendDocument(chatID int64, filename string, data []byte, caption string) int {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = "\u200f" + caption
	doc.ParseMode = tgbotapi.ModeHTML
	return b.send(doc, chatID, "document")
}

func (b *Bot) SendMainMenu(chatID int64, text string) {
	b.sendMessage(chatID, text, MainMenuKeyboard())
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopping)
		b.api.StopReceivingUpdates()
	})
	logger.Info("Bot stopped receiving updates")
}
