package repo

import (
	"context"
	"database/sql"
	"slices"

	entsql "entgo.io/ent/dialect/sql"
)

var messageColumns = []string{
	"id", "sender_id", "receiver_id", "message_type", "text",
	"file_url", "file_name", "file_type", "file_size",
	"is_read", "read_at", "created_at",
}

func scanMessage(rows *entsql.Rows) (*Message, error) {
	var (
		m                         Message
		text, url, name, mimeType sql.NullString
		size                      sql.NullInt64
		readAt                    sql.NullTime
	)
	if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Type, &text,
		&url, &name, &mimeType, &size, &m.IsRead, &readAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Text = nullString(text)
	m.ReadAt = nullTime(readAt)
	if url.Valid {
		m.File = &FileMeta{URL: url.String, Name: name.String, MimeType: mimeType.String, Size: size.Int64}
	}
	return &m, nil
}

func (c *Client) queryMessages(ctx context.Context, q string, args []any) ([]*Message, error) {
	var out []*Message
	err := c.query(ctx, q, args, func(rows *entsql.Rows) error {
		m, err := scanMessage(rows)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (c *Client) CreateMessage(ctx context.Context, m *Message) (*Message, error) {
	var url, name, mimeType, size any
	if m.File != nil {
		url, name, mimeType, size = m.File.URL, m.File.Name, m.File.MimeType, m.File.Size
	}
	q, args := c.b.Insert(tableMessages).
		Columns("sender_id", "receiver_id", "message_type", "text",
			"file_url", "file_name", "file_type", "file_size", "is_read", "created_at").
		Values(m.SenderID, m.ReceiverID, string(m.Type), m.Text,
			url, name, mimeType, size, false, c.now()).
		Returning(messageColumns...).
		Query()

	var out *Message
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		var err error
		out, err = scanMessage(rows)
		return err
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FindMessage(ctx context.Context, id int64) (*Message, error) {
	q, args := c.b.Select(messageColumns...).
		From(c.b.Table(tableMessages)).
		Where(entsql.EQ("id", id)).
		Query()

	var out *Message
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		var err error
		out, err = scanMessage(rows)
		return err
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FindMessagesBetween(ctx context.Context, userA, userB int64) ([]*Message, error) {
	q, args := c.b.Select(messageColumns...).
		From(c.b.Table(tableMessages)).
		Where(entsql.Or(
			entsql.And(entsql.EQ("sender_id", userA), entsql.EQ("receiver_id", userB)),
			entsql.And(entsql.EQ("sender_id", userB), entsql.EQ("receiver_id", userA)),
		)).
		OrderBy("created_at", "id").
		Query()

	return c.queryMessages(ctx, q, args)
}

func (c *Client) UpdateMessageRead(ctx context.Context, id int64) (*Message, bool, error) {
	q, args := c.b.Update(tableMessages).
		Set("is_read", true).
		Set("read_at", c.now()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("is_read", false),
		)).
		Query()

	n, err := c.exec(ctx, q, args)
	if err != nil {
		return nil, false, err
	}
	m, err := c.FindMessage(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return m, n > 0, nil
}

func (c *Client) BulkUpdateMessagesRead(ctx context.Context, receiverID int64, limit int) (int, []*Message, error) {
	var (
		flipped int
		recent  []*Message
	)
	err := c.WithTx(ctx, func(ctx context.Context, g Gateway) error {
		tx := g.(*Client)

		q, args := tx.b.Select("id").
			From(tx.b.Table(tableMessages)).
			Where(entsql.And(
				entsql.EQ("receiver_id", receiverID),
				entsql.EQ("is_read", false),
			)).
			ForUpdate().
			Query()

		var ids []int64
		if err := tx.query(ctx, q, args, func(rows *entsql.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		}); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		q, args = tx.b.Update(tableMessages).
			Set("is_read", true).
			Set("read_at", tx.now()).
			Where(entsql.And(
				entsql.In("id", int64Args(ids)...),
				entsql.EQ("is_read", false),
			)).
			Query()
		n, err := tx.exec(ctx, q, args)
		if err != nil {
			return err
		}
		flipped = int(n)

		q, args = tx.b.Select(messageColumns...).
			From(tx.b.Table(tableMessages)).
			Where(entsql.In("id", int64Args(ids)...)).
			OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
			Limit(limit).
			Query()
		recent, err = tx.queryMessages(ctx, q, args)
		if err != nil {
			return err
		}
		slices.Reverse(recent)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return flipped, recent, nil
}

func (c *Client) CountUnreadForUser(ctx context.Context, receiverID int64) (int, error) {
	q, args := c.b.Select(entsql.Count("*")).
		From(c.b.Table(tableMessages)).
		Where(entsql.And(
			entsql.EQ("receiver_id", receiverID),
			entsql.EQ("is_read", false),
		)).
		Query()

	var n int
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	}); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) GroupUnreadBySender(ctx context.Context, receiverID int64) ([]SenderCount, error) {
	m := c.b.Table(tableMessages).As("m")
	u := c.b.Table(tableUsers).As("u")
	q, args := c.b.Select(m.C("sender_id"), u.C("role"), u.C("name"), entsql.Count("*")).
		From(m).
		Join(u).On(m.C("sender_id"), u.C("id")).
		Where(entsql.And(
			entsql.EQ(m.C("receiver_id"), receiverID),
			entsql.EQ(m.C("is_read"), false),
		)).
		GroupBy(m.C("sender_id"), u.C("role"), u.C("name")).
		OrderBy(m.C("sender_id")).
		Query()

	var out []SenderCount
	err := c.query(ctx, q, args, func(rows *entsql.Rows) error {
		var sc SenderCount
		if err := rows.Scan(&sc.SenderID, &sc.SenderRole, &sc.SenderName, &sc.Count); err != nil {
			return err
		}
		out = append(out, sc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
