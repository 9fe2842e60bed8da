// Package locale provides the bilingual (English/Chinese) message catalogue
// used for every user-visible string in the reader.
package locale

// Lang identifies the active display language.
type Lang string

const (
	English Lang = "en"
	Chinese Lang = "zh"
)

// Parse normalizes a stored language tag, defaulting to English.
func Parse(value string) Lang {
	if value == string(Chinese) {
		return Chinese
	}
	return English
}

// Toggle flips between the two supported languages.
func (l Lang) Toggle() Lang {
	if l == English {
		return Chinese
	}
	return English
}

// Message keys.
const (
	MsgWelcome            = "welcome"
	MsgOpenPrompt         = "open_prompt"
	MsgLoading            = "loading"
	MsgProcessingEPUB     = "processing_epub"
	MsgUnsupportedFormat  = "unsupported_format"
	MsgPlannedFormat      = "planned_format"
	MsgCorruptFile        = "corrupt_file"
	MsgProtectedFile      = "protected_file"
	MsgBackendUnavailable = "backend_unavailable"
	MsgNoDocument         = "no_document"
	MsgNoTOC              = "no_toc"
	MsgGenerating         = "generating"
	MsgGenerationPending  = "generation_pending"
	MsgGenerationFailed   = "generation_failed"
	MsgChatPlaceholder    = "chat_placeholder"
	MsgChatEmpty          = "chat_empty"
	MsgChatCleared        = "chat_cleared"
	MsgThinking           = "thinking"
	MsgSettingsSaveFailed = "settings_save_failed"
	MsgSeekPrompt         = "seek_prompt"
	MsgUnknownAuthor      = "unknown_author"
	MsgNoChapters         = "no_chapters"
	MsgBookLoaded         = "book_loaded"
	MsgSummaryReady       = "summary_ready"
	MsgChaptersReady      = "chapters_ready"
	MsgAnalysisReady      = "analysis_ready"
	MsgSettingsReloaded   = "settings_reloaded"
	MsgSettingsReset      = "settings_reset"
)

var messages = map[string]map[Lang]string{
	MsgWelcome: {
		English: "Open a book to begin reading.",
		Chinese: "打开一本书开始阅读。",
	},
	MsgOpenPrompt: {
		English: "Path to a TXT, HTML, PDF, or EPUB file…",
		Chinese: "TXT、HTML、PDF 或 EPUB 文件路径…",
	},
	MsgLoading: {
		English: "Loading book…",
		Chinese: "正在加载书籍…",
	},
	MsgProcessingEPUB: {
		English: "Processing EPUB file…",
		Chinese: "正在处理 EPUB 文件…",
	},
	MsgUnsupportedFormat: {
		English: "Unsupported file format. Please open EPUB, PDF, TXT, or HTML files.",
		Chinese: "不支持的文件格式。请打开 EPUB、PDF、TXT 或 HTML 文件。",
	},
	MsgPlannedFormat: {
		English: "%s format support is coming soon! For now, please try EPUB, PDF, TXT, or HTML files.",
		Chinese: "%s 格式支持即将推出！目前请尝试 EPUB、PDF、TXT 或 HTML 文件。",
	},
	MsgCorruptFile: {
		English: "Error loading file. The file might be corrupted.",
		Chinese: "加载文件时出错。文件可能已损坏。",
	},
	MsgProtectedFile: {
		English: "This file is password-protected, which is not supported.",
		Chinese: "该文件受密码保护，暂不支持。",
	},
	MsgBackendUnavailable: {
		English: "AI service is not available. Please ensure the backend is running.",
		Chinese: "AI 服务不可用。请确保后端正在运行。",
	},
	MsgNoDocument: {
		English: "Please load a book first.",
		Chinese: "请先加载一本书。",
	},
	MsgNoTOC: {
		English: "No table of contents available.",
		Chinese: "无目录。",
	},
	MsgGenerating: {
		English: "Generating with the reading assistant… (30-60 seconds)",
		Chinese: "读书助手生成中…（30-60 秒）",
	},
	MsgGenerationPending: {
		English: "A generation is already in progress for this feature.",
		Chinese: "该功能的生成任务已在进行中。",
	},
	MsgGenerationFailed: {
		English: "Failed to generate. Please ensure the AI backend is running.",
		Chinese: "生成失败。请确保 AI 后端正在运行。",
	},
	MsgChatPlaceholder: {
		English: "Ask a question about the book…",
		Chinese: "询问关于这本书的问题…",
	},
	MsgChatEmpty: {
		English: "Start a conversation about this book…",
		Chinese: "开始关于这本书的对话…",
	},
	MsgChatCleared: {
		English: "Chat history cleared.",
		Chinese: "聊天记录已清除。",
	},
	MsgThinking: {
		English: "The reading assistant is thinking… (30-60 seconds)",
		Chinese: "读书助手正在思考…（30-60 秒）",
	},
	MsgSettingsSaveFailed: {
		English: "Could not save reading settings: %s",
		Chinese: "无法保存阅读设置：%s",
	},
	MsgSeekPrompt: {
		English: "Jump to percent (0-100)…",
		Chinese: "跳转到百分比（0-100）…",
	},
	MsgUnknownAuthor: {
		English: "Unknown Author",
		Chinese: "未知作者",
	},
	MsgNoChapters: {
		English: "This book has no chapter structure to summarize.",
		Chinese: "这本书没有可总结的章节结构。",
	},
	MsgBookLoaded: {
		English: "Loaded %s.",
		Chinese: "已加载 %s。",
	},
	MsgSummaryReady: {
		English: "Book summary ready.",
		Chinese: "书籍摘要已生成。",
	},
	MsgChaptersReady: {
		English: "Chapter summaries ready.",
		Chinese: "章节摘要已生成。",
	},
	MsgAnalysisReady: {
		English: "Content analysis ready.",
		Chinese: "内容分析已生成。",
	},
	MsgSettingsReloaded: {
		English: "Settings reloaded from disk.",
		Chinese: "设置已从磁盘重新加载。",
	},
	MsgSettingsReset: {
		English: "Settings restored to defaults.",
		Chinese: "设置已恢复为默认值。",
	},
}

// T returns the message for key in the requested language. Unknown keys return
// the key itself so a missing entry is visible instead of silent.
func T(lang Lang, key string) string {
	entry, ok := messages[key]
	if !ok {
		return key
	}
	if msg, ok := entry[lang]; ok {
		return msg
	}
	return entry[English]
}
