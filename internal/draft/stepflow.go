package draft

// ==================== 步骤状态机 ====================

// Step 当前所处的步骤
type Step string

const (
	StepLinkInput    Step = "link_input"    // 链接模式首步
	StepContactInfo  Step = "contact_info"  // 手动模式首步
	StepRequestItems Step = "request_items" // 条目编辑
	StepConfirmation Step = "confirmation"  // 提交前确认
	StepSuccess      Step = "success"       // 终态,需新建草稿才能重新进入流程
)

// initialStep 草稿初始步骤
func initialStep(mode Mode) Step {
	if mode == ModeManual {
		return StepContactInfo
	}
	return StepLinkInput
}

// nextStep 前进一步
// 离开 request_items 要求条目非空,不满足时拒绝且不产生错误对象
// (触发前进的控件本应处于禁用态);其余步骤按当前设计不设门禁
func nextStep(mode Mode, s Step, itemCount int) (Step, bool) {
	switch s {
	case StepLinkInput, StepContactInfo:
		return StepRequestItems, true
	case StepRequestItems:
		if itemCount == 0 {
			return s, false
		}
		return StepConfirmation, true
	case StepConfirmation:
		return StepSuccess, true
	default:
		// success 为终态
		return s, false
	}
}

// prevStep 后退一步
func prevStep(mode Mode, s Step) (Step, bool) {
	switch s {
	case StepRequestItems:
		return initialStep(mode), true
	case StepConfirmation:
		return StepRequestItems, true
	default:
		return s, false
	}
}
