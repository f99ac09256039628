package draft

// ==================== 外部导入对账 ====================

// ProductStub 外部工具(如配套浏览器插件)提供的商品桩
type ProductStub struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	MainImage string `json:"mainImage,omitempty"`
}

// ImportBatch 把一批外部商品桩并入草稿,返回生成的条目数
//
// 空批次是严格 no-op,现有草稿原样保留——对空信号的静默忽略是有意为之,
// 避免一次误触发清掉用户手工录入的数据。
// 非空批次则整体替换当前条目列表:每个桩生成一个全新条目
// (链接、名称、主图,数量默认 1,规格为空),用户已编辑过的条目被丢弃。
// 被替换条目的在途上传完成后因找不到条目而被丢弃。
func (s *Store) ImportBatch(stubs []ProductStub) int {
	if len(stubs) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]ItemDraft, 0, len(stubs))
	for _, st := range stubs {
		it := newItemDraft()
		it.Link = st.URL
		it.SourcePlatform = derivePlatform(st.URL)
		it.Name = st.Name
		if st.MainImage != "" {
			it.Images = append(it.Images, st.MainImage)
		}
		items = append(items, it)
	}
	s.draft.Items = items
	s.touch()
	return len(items)
}
