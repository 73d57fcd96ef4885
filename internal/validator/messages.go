package validator

// messages maps "field.tag" (or a bare tag) to the text shown to the user.
var messages = map[string]string{
	"nationalId.required": "الرقم القومي مطلوب",
	"nationalId.len":      "الرقم القومي يجب أن يكون 14 رقم",
	"nationalId.digits":   "الرقم القومي يجب أن يحتوي على أرقام فقط",

	"fullNameAr.required": "الاسم الرباعي باللغة العربية مطلوب",
	"fullNameAr.min":      "يرجى إدخال الاسم الرباعي كاملاً",
	"fullNameAr.arabic":   "يجب أن يكون الاسم باللغة العربية فقط",

	"fullNameEn.required": "الاسم الرباعي باللغة الإنجليزية مطلوب",
	"fullNameEn.min":      "يرجى إدخال الاسم الرباعي كاملاً",
	"fullNameEn.latin":    "يجب أن يكون الاسم باللغة الإنجليزية فقط",

	"governorate.required":    "المحافظة مطلوبة",
	"governorate.governorate": "يرجى اختيار محافظة صحيحة",

	"memberType.required": "يرجى اختيار نوع العضو",
	"memberType.oneof":    "يرجى اختيار نوع العضو",

	"entityName.required": "الوحدة/اللجنة مطلوبة",
	"entityName.entity":   "يرجى اختيار وحدة أو لجنة صحيحة",

	"role.required": "الصفة داخل الاتحاد مطلوبة",
	"role.min":      "يرجى إدخال صفة صحيحة",

	"paymentMethod.required":   "يرجى اختيار طريقة الدفع",
	"paymentMethod.oneof":      "يرجى اختيار طريقة الدفع",
	"coordinatorName.required": "اسم منسق المحافظة مطلوب",
	"instapayRef.required":     "الرقم المرجعي لعملية الدفع مطلوب",
	"amountPaid.gte":           "المبلغ المدفوع غير صالح",

	"profileImage.required":   "الصورة الشخصية مطلوبة",
	"paymentReceipt.required": "صورة إيصال الدفع مطلوبة",

	"name.required":             "الاسم مطلوب",
	"category.required":         "التصنيف مطلوب",
	"category.category":         "يرجى اختيار تصنيف صحيح",
	"organizingEntity.required": "الجهة المنظمة مطلوبة",
	"location.required":         "المكان مطلوب",
	"date.required":             "التاريخ مطلوب",
	"date.datetime":             "صيغة التاريخ غير صحيحة",
	"startTime.required":        "وقت البداية مطلوب",
	"startTime.clock":           "صيغة الوقت غير صحيحة",
	"endTime.clock":             "صيغة الوقت غير صحيحة",

	"email.required":    "البريد الإلكتروني مطلوب",
	"email.email":       "البريد الإلكتروني غير صالح",
	"password.required": "كلمة المرور مطلوبة",
	"password.min":      "كلمة المرور يجب أن تكون 6 أحرف على الأقل",

	"imageref":  "يجب أن تكون الصورة بصيغة JPG أو PNG فقط",
	"imagesize": "حجم الصورة يجب أن يكون أقل من 2 ميجابايت",
	"required":  "هذا الحقل مطلوب",
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[tag]; ok {
		return m
	}
	return "قيمة غير صالحة"
}
