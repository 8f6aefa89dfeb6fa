package handlers

// Reply keyboard buttons
const (
	BtnNewInvoice    = "🧾 فاتورة جديدة"
	BtnLoadLast      = "📂 آخر فاتورة محفوظة"
	BtnSavedInvoices = "🗂 الفواتير المحفوظة"
	BtnImport        = "📥 استيراد Excel"
	BtnHelp          = "❓ مساعدة"
	BtnSkip          = "⏭ تخطي"
	BtnCancel        = "❌ إلغاء"
	BtnYes           = "✅ نعم"
	BtnNo            = "✖️ لا"
)

// Inline summary actions
const (
	BtnAddItem    = "➕ صنف جديد"
	BtnRemoveLast = "➖ حذف آخر صنف"
	BtnSave       = "💾 حفظ"
	BtnPDF        = "🖨 PDF"
	BtnXLSX       = "📊 Excel"
	BtnLink       = "🔗 رابط الإيصال"
	BtnDelete     = "🗑 حذف الفاتورة"
	BtnLoad       = "📂 فتح"
)

const (
	MsgWelcome  = "👋 أهلاً بك في بوت إيصالات الذهب.\n\nاختر من القائمة لإنشاء فاتورة جديدة أو فتح فاتورة محفوظة."
	MsgMainMenu = "🏠 القائمة الرئيسية"
	MsgHelp     = "<b>طريقة الاستخدام</b>\n\n" +
		"1. اضغط «فاتورة جديدة» وأدخل رقم الموبايل واسم العميل والتاريخ.\n" +
		"2. أدخل بيانات كل صنف خطوة بخطوة. الأرقام العربية والإنجليزية مقبولة.\n" +
		"3. من الملخص يمكنك إضافة صنف أو حذف آخر صنف أو الحفظ أو طباعة PDF أو Excel.\n\n" +
		"/new فاتورة جديدة\n/last آخر فاتورة\n/saved الفواتير المحفوظة\n/cancel إلغاء"
	MsgCancel       = "❌ تم الإلغاء."
	MsgUnauthorized = "⛔️ غير مصرح لك باستخدام هذا البوت."
	MsgRateLimited  = "⏳ طلبات كثيرة، انتظر قليلاً ثم حاول مرة أخرى."
	MsgError        = "⚠️ حدث خطأ، حاول مرة أخرى."

	MsgAskMobile   = "📱 أدخل رقم موبايل العميل (11 رقم):"
	MsgAskName     = "👤 أدخل اسم العميل:"
	MsgAskDate     = "📅 أدخل التاريخ بالشكل YYYY-MM-DD أو اضغط تخطي لاستخدام تاريخ اليوم (%s):"
	MsgAskSeller   = "🏪 أدخل اسم البائع أو اضغط تخطي:"
	MsgBadMobile   = "⚠️ رقم الموبايل يجب أن يكون 11 رقم ويبدأ بـ 010 أو 011 أو 012 أو 015."
	MsgBadDate     = "⚠️ التاريخ غير صحيح، مثال: 2024-06-01"
	MsgNeedText    = "⚠️ هذه الخانة مطلوبة."
	MsgNeedNumber  = "⚠️ أدخل رقماً."
	MsgNeedYesNo   = "⚠️ اختر نعم أو لا."
	MsgItemHeading = "📦 الصنف رقم %d"

	MsgAskDescription  = "✏️ الوصف:"
	MsgAskGrams        = "⚖️ الوزن بالجرام:"
	MsgAskMilligrams   = "⚖️ المليجرام (اختياري):"
	MsgAskKarat        = "💎 العيار:"
	MsgAskPricePound   = "💵 سعر الجرام بالجنيه:"
	MsgAskPricePiaster = "💵 القروش (اختياري):"
	MsgAskValuePound   = "💰 القيمة بالجنيه:"
	MsgAskValuePiaster = "💰 القروش (اختياري):"
	MsgAskHasTax       = "🧾 هل على هذا الصنف ضريبة؟"
	MsgAskTaxAmount    = "🧾 قيمة الضريبة:"
	MsgAskTaxNote      = "📝 ملاحظة الضريبة (اختياري):"

	MsgMaxItems       = "⚠️ الفاتورة تتسع لـ 13 صنف فقط."
	MsgMinItems       = "⚠️ لا يمكن حذف الصنف الوحيد."
	MsgIncomplete     = "⚠️ الفاتورة غير مكتملة:\n%s"
	MsgSaved          = "✅ تم حفظ الفاتورة بنجاح! (%s)"
	MsgDeleted        = "🗑 تم حذف الفاتورة %s."
	MsgNoDraft        = "⚠️ لا توجد فاتورة مفتوحة. اضغط «فاتورة جديدة»."
	MsgNoSaved        = "📭 لا توجد فواتير محفوظة."
	MsgSavedList      = "🗂 الفواتير المحفوظة (%d):"
	MsgLoaded         = "📂 تم فتح الفاتورة %s."
	MsgNotFound       = "⚠️ الفاتورة غير موجودة."
	MsgNotOwner       = "⛔️ هذه الفاتورة محفوظة باسم مستخدم آخر."
	MsgLink           = "🔗 رابط الإيصال (صالح 24 ساعة):\n%s"
	MsgLinksDisabled  = "⚠️ روابط الإيصالات غير مفعلة."
	MsgAskImport      = "📥 أرسل ملف Excel (.xlsx) بنفس شكل الملف المُصدَّر من البوت."
	MsgBadFile        = "⚠️ الملف يجب أن يكون .xlsx وحجمه لا يتجاوز %d ميجابايت."
	MsgImportFailed   = "⚠️ تعذر قراءة الملف: %s"
	MsgImported       = "📥 تم استيراد %d صنف."
	MsgReceiptCaption = "🧾 %s"
	MsgSummaryActions = "اختر الإجراء التالي:"
)
