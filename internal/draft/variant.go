package draft

// ==================== 属性名 ====================

// AttributeName 规格属性名
// 预定义名与自定义名("其他"类目)用同一类型表达,Custom 标记区分,
// 使"同一条目内预定义名不得重复"这条约束可以按构造检查
type AttributeName struct {
	Custom bool   `json:"custom"`
	Name   string `json:"name"`
}

// PredefinedName 预定义属性名
func PredefinedName(name string) AttributeName {
	return AttributeName{Name: name}
}

// CustomName 自定义属性名("其他"类目,名称由用户填写)
func CustomName(name string) AttributeName {
	return AttributeName{Custom: true, Name: name}
}

// PredefinedAttributeNames 预定义属性名集合
// 界面添加行时只应提供尚未使用的预定义名,组件侧仍做防御性去重
var PredefinedAttributeNames = []string{"Color", "Size", "Style", "Material"}

// IsPredefinedAttribute 判断是否预定义属性名
func IsPredefinedAttribute(name string) bool {
	for _, n := range PredefinedAttributeNames {
		if n == name {
			return true
		}
	}
	return false
}

// ==================== 属性行 ====================

// VariantAttribute 一行规格属性(名称 + 取值)
type VariantAttribute struct {
	AttributeName AttributeName `json:"attribute_name"`
	FieldValue    string        `json:"field_value"`
}

// VariantPatch 属性行的部分更新
type VariantPatch struct {
	AttributeName *AttributeName
	FieldValue    *string
}

// ==================== 行操作(由 Store 持锁调用) ====================

// hasPredefined 条目内是否已有同名预定义行;skip 为排除的行下标(更新自身时用 -1 以外的值)
func hasPredefined(it *ItemDraft, name string, skip int) bool {
	for i, row := range it.Variants {
		if i == skip {
			continue
		}
		if !row.AttributeName.Custom && row.AttributeName.Name == name {
			return true
		}
	}
	return false
}

// addVariantRow 追加属性行
// 预定义名重复时静默忽略(no-op);多条名称不同的自定义行是允许的
func addVariantRow(it *ItemDraft, selection AttributeName) {
	if !selection.Custom && hasPredefined(it, selection.Name, -1) {
		return
	}
	it.Variants = append(it.Variants, VariantAttribute{
		AttributeName: selection,
		FieldValue:    "",
	})
}

// updateVariantRow 部分更新属性行
// 把行名改成已存在的预定义名会破坏唯一性约束,此时整个补丁不生效;
// 行顺序始终保持插入顺序,不做重排
func updateVariantRow(it *ItemDraft, index int, patch VariantPatch) error {
	if index < 0 || index >= len(it.Variants) {
		return NewValidationError("index", "属性行不存在")
	}
	if patch.AttributeName != nil {
		n := *patch.AttributeName
		if !n.Custom && hasPredefined(it, n.Name, index) {
			return nil
		}
		// 从"其他"切回预定义名时,原先填写的自定义名被整体替换
		it.Variants[index].AttributeName = n
	}
	if patch.FieldValue != nil {
		it.Variants[index].FieldValue = *patch.FieldValue
	}
	return nil
}

// removeVariantRow 删除属性行,对其余行无连带影响
func removeVariantRow(it *ItemDraft, index int) error {
	if index < 0 || index >= len(it.Variants) {
		return NewValidationError("index", "属性行不存在")
	}
	it.Variants = append(it.Variants[:index], it.Variants[index+1:]...)
	return nil
}
